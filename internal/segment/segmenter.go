package segment

import (
	"context"
	"image"
)

// Config holds the segmentation tolerances.
type Config struct {
	// MaxSubpixelFFDistance is how far each colour channel may sit below 0xff
	// and still count as background.
	MaxSubpixelFFDistance uint8
	// MaximumLetterPixelCount caps the size of a component that can still be
	// a letter.
	MaximumLetterPixelCount int
}

// DefaultConfig returns the tolerances tuned for nameplate text.
func DefaultConfig() Config {
	return Config{
		MaxSubpixelFFDistance:   80,
		MaximumLetterPixelCount: 1500,
	}
}

// Clean runs whiteness classification, midline segmentation and compositing
// over img and returns the two-tone result.
func Clean(ctx context.Context, img *image.NRGBA, cfg Config) (*image.NRGBA, Stats, error) {
	m := NewMask(img, cfg.MaxSubpixelFFDistance)
	defer m.Release()

	st, err := m.SegmentContext(ctx, cfg.MaximumLetterPixelCount)
	if err != nil {
		return nil, st, err
	}

	// Reuse the input's storage for the output; the caller hands img over.
	if err := CompositeInto(img, m); err != nil {
		return nil, st, err
	}
	return img, st, nil
}
