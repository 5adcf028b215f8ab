package utils

import (
	"errors"
	"image"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTargetSize_PreservesAspect(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("height is the smallest integer not below the exact ratio", prop.ForAll(
		func(w, h, target int) bool {
			gw, gh, err := TargetSize(w, h, target)
			if exact := (target*h + w - 1) / w; target*exact > MaxTargetPixels {
				return errors.Is(err, ErrTargetTooLarge)
			}
			if err != nil || gw != target {
				return false
			}
			// gh = ceil(target*h/w)  <=>  (gh-1)*w < target*h <= gh*w
			return (gh-1)*w < target*h && target*h <= gh*w
		},
		gen.IntRange(1, 2000), gen.IntRange(1, 2000), gen.IntRange(1, 1000),
	))

	properties.Property("resized image matches target size", prop.ForAll(
		func(w, h int) bool {
			img := image.NewNRGBA(image.Rect(0, 0, w, h))
			got, err := ResizeToWidth(img, 120)
			if err != nil {
				return false
			}
			ew, eh, _ := TargetSize(w, h, 120)
			return got.Bounds().Dx() == ew && got.Bounds().Dy() == eh
		},
		gen.IntRange(1, 80), gen.IntRange(1, 80),
	))

	properties.TestingRun(t)
}
