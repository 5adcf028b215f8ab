package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrInvalidDimensions marks a resize request that can never be satisfied.
// It indicates a caller bug rather than bad input data.
var ErrInvalidDimensions = errors.New("invalid image dimensions")

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ImageConstraints bounds the viewport sizes the pipeline accepts.
type ImageConstraints struct {
	MaxWidth  int
	MaxHeight int
	MinWidth  int
	MinHeight int
}

// DefaultImageConstraints returns the limits for captured viewports. Name
// plates are small; anything larger than a quarter of a 4K frame is almost
// certainly a capture bug.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MaxWidth:  1920,
		MaxHeight: 1080,
		MinWidth:  1,
		MinHeight: 1,
	}
}

// ValidateImageConstraints checks dimensions against the provided constraints.
func ValidateImageConstraints(img image.Image, constraints ImageConstraints) error {
	if img == nil {
		return &ImageProcessingError{Operation: "validate", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < constraints.MinWidth || h < constraints.MinHeight {
		return &ImageProcessingError{
			Operation: "validate",
			Err:       fmt.Errorf("image too small: %dx%d < %dx%d", w, h, constraints.MinWidth, constraints.MinHeight),
		}
	}
	if w > constraints.MaxWidth || h > constraints.MaxHeight {
		return &ImageProcessingError{
			Operation: "validate",
			Err:       fmt.Errorf("image too large: %dx%d > %dx%d", w, h, constraints.MaxWidth, constraints.MaxHeight),
		}
	}
	return nil
}

// MaxTargetPixels caps the area of a resized viewport. At the default
// width of 300 it allows about 14000 rows.
const MaxTargetPixels = 1 << 22

// ErrTargetTooLarge marks a viewport whose resized form would exceed
// MaxTargetPixels, typically a narrow and very tall capture.
var ErrTargetTooLarge = errors.New("resize target too large")

// TargetSize returns the size of a width x height image scaled to
// targetWidth with its aspect ratio preserved. The height is rounded up.
func TargetSize(width, height, targetWidth int) (int, int, error) {
	if width <= 0 || height <= 0 || targetWidth <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d to width %d", ErrInvalidDimensions, width, height, targetWidth)
	}
	h := (int64(targetWidth)*int64(height) + int64(width) - 1) / int64(width)
	if int64(targetWidth) > MaxTargetPixels || h > MaxTargetPixels/int64(targetWidth) {
		return 0, 0, fmt.Errorf("%w: %dx%d to width %d needs %d rows", ErrTargetTooLarge, width, height, targetWidth, h)
	}
	return targetWidth, int(h), nil
}

// ResizeToWidth resamples img to targetWidth, preserving aspect ratio, with
// a Catmull-Rom (bicubic) filter. imaging clamps filter taps to the source
// rectangle, so the border is extended rather than blended with black.
// The result is always a fresh *image.NRGBA owned by the caller.
func ResizeToWidth(img image.Image, targetWidth int) (*image.NRGBA, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	w, h, err := TargetSize(b.Dx(), b.Dy(), targetWidth)
	if err != nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: err}
	}
	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(img), nil
	}
	return imaging.Resize(img, w, h, imaging.CatmullRom), nil
}
