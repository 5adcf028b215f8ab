package segment

import (
	"fmt"
	"image"
)

// Composite renders the mask as a two-tone image: Letter cells become opaque
// black, everything else opaque white.
func Composite(m *Mask) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, m.w, m.h))
	// Sizes match by construction.
	_ = CompositeInto(dst, m)
	return dst
}

// CompositeInto writes the two-tone rendering of m into dst, which must have
// the same dimensions as the mask.
func CompositeInto(dst *image.NRGBA, m *Mask) error {
	b := dst.Bounds()
	if b.Dx() != m.w || b.Dy() != m.h {
		return fmt.Errorf("%w: %w: image %dx%d, mask %dx%d",
			ErrDefect, ErrDimensionMismatch, b.Dx(), b.Dy(), m.w, m.h)
	}

	for y := range m.h {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+m.w*4]
		for x := range m.w {
			var v uint8 = 0xff
			if Cell(m.cells[y*m.w+x]) == Letter {
				v = 0
			}
			p := row[x*4 : x*4+4 : x*4+4]
			p[0], p[1], p[2], p[3] = v, v, v, 0xff
		}
	}
	return nil
}
