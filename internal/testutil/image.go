package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ViewportConfig describes a synthetic nameplate capture.
type ViewportConfig struct {
	Text       string
	Width      int
	Height     int
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	// Clutter draws a dark bar from the left edge across the midline, the
	// way a neighbouring HUD element bleeds into a crop.
	Clutter bool
	// Speck draws a small dot above the text, away from the midline.
	Speck bool
}

// DefaultViewportConfig returns a 120x24 white plate with black text.
func DefaultViewportConfig() ViewportConfig {
	return ViewportConfig{
		Text:       "Gazuzu",
		Width:      120,
		Height:     24,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GenerateViewport renders cfg into a fresh NRGBA image. The text baseline is
// placed so that the glyph bodies cross the middle row.
func GenerateViewport(cfg ViewportConfig) *image.NRGBA {
	if cfg.FontFace == nil {
		cfg.FontFace = basicfont.Face7x13
	}
	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	fg := &image.Uniform{cfg.Foreground}
	if cfg.Clutter {
		bar := image.Rect(0, cfg.Height/2-3, 6, cfg.Height/2+3)
		draw.Draw(img, bar, fg, image.Point{}, draw.Src)
	}
	if cfg.Speck {
		draw.Draw(img, image.Rect(cfg.Width-8, 2, cfg.Width-6, 4), fg, image.Point{}, draw.Src)
	}

	if cfg.Text != "" {
		m := cfg.FontFace.Metrics()
		textWidth := font.MeasureString(cfg.FontFace, cfg.Text).Ceil()
		x := (cfg.Width - textWidth) / 2
		y := (cfg.Height+m.Height.Ceil())/2 - m.Descent.Ceil()
		d := &font.Drawer{Dst: img, Src: fg, Face: cfg.FontFace, Dot: fixed.P(x, y)}
		d.DrawString(cfg.Text)
	}
	return img
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// SaveImage writes img as PNG to path.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	require.NoError(t, os.WriteFile(path, EncodePNG(t, img), 0o600))
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")

	return img
}

// CountDark returns the number of pixels whose red channel is below 128.
func CountDark(img image.Image) int {
	b := img.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r>>8 < 128 {
				n++
			}
		}
	}
	return n
}
