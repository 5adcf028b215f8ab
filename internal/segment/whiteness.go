// Package segment isolates letter-shaped ink from background clutter in a
// captured viewport and renders the result as a two-tone image for OCR.
package segment

import "image/color"

// IsBackground reports whether a pixel counts as near-white background.
// Only fully opaque pixels qualify; anything translucent stays an ink
// candidate so faded letters survive.
func IsBackground(c color.NRGBA, tolerance uint8) bool {
	if c.A != 0xff {
		return false
	}
	return 0xff-c.R <= tolerance &&
		0xff-c.G <= tolerance &&
		0xff-c.B <= tolerance
}
