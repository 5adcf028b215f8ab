package preprocess

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/namescan/internal/segment"
	"github.com/MeKo-Tech/namescan/internal/testutil"
	"github.com/MeKo-Tech/namescan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = color.NRGBA{255, 255, 255, 255}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{})
	assert.Equal(t, DefaultMinResizeWidth, p.Config().MinResizeWidth)
	assert.Equal(t, 1500, p.Config().Segment.MaximumLetterPixelCount)
}

func TestProcess_ResizesAndCleans(t *testing.T) {
	p := New(DefaultConfig())
	img := testutil.GenerateViewport(testutil.DefaultViewportConfig())

	out, st, err := p.Process(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 300, 60), out.Bounds())
	assert.Positive(t, st.Letters)
	assert.Zero(t, st.NoiseComponents)
	assert.Positive(t, testutil.CountDark(out))

	mixed := 0
	for _, px := range out.Pix {
		if px != 0 && px != 255 {
			mixed++
		}
	}
	assert.Zero(t, mixed, "output must be two-tone")
}

func TestProcess_DropsClutterAndSpecks(t *testing.T) {
	p := New(DefaultConfig())

	plain := testutil.DefaultViewportConfig()
	cluttered := plain
	cluttered.Clutter = true
	cluttered.Speck = true

	clean, _, err := p.Process(context.Background(), testutil.GenerateViewport(plain))
	require.NoError(t, err)
	dirty, st, err := p.Process(context.Background(), testutil.GenerateViewport(cluttered))
	require.NoError(t, err)

	assert.Equal(t, 1, st.NoiseComponents)
	assert.Equal(t, white, dirty.NRGBAAt(0, 30), "border clutter removed")
	assert.Equal(t, white, dirty.NRGBAAt(282, 7), "off-midline speck removed")
	assert.Equal(t, testutil.CountDark(clean), testutil.CountDark(dirty))
}

func TestProcess_Defects(t *testing.T) {
	p := New(DefaultConfig())

	_, _, err := p.Process(context.Background(), nil)
	require.ErrorIs(t, err, segment.ErrDefect)

	_, _, err = p.Process(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 10)))
	require.ErrorIs(t, err, segment.ErrDefect)
}

func TestProcess_RejectsOversizedTarget(t *testing.T) {
	p := New(DefaultConfig())

	sliver := image.NewNRGBA(image.Rect(0, 0, 1, 400))
	for y := range 400 {
		sliver.SetNRGBA(0, y, white)
	}

	out, _, err := p.Process(context.Background(), sliver)
	require.ErrorIs(t, err, utils.ErrTargetTooLarge)
	assert.NotErrorIs(t, err, segment.ErrDefect)
	assert.Nil(t, out)
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(DefaultConfig()).Process(ctx, testutil.GenerateViewport(testutil.DefaultViewportConfig()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcess_DebugDump(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	cfg := DefaultConfig()
	cfg.DebugDir = dir

	_, _, err := New(cfg).Process(context.Background(), testutil.GenerateViewport(testutil.DefaultViewportConfig()))
	require.NoError(t, err)

	resized, err := filepath.Glob(filepath.Join(dir, "*-resized.png"))
	require.NoError(t, err)
	cleaned, err := filepath.Glob(filepath.Join(dir, "*-cleaned.png"))
	require.NoError(t, err)
	assert.Len(t, resized, 1)
	assert.Len(t, cleaned, 1)

	info, err := os.Stat(cleaned[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	img := testutil.GenerateViewport(testutil.DefaultViewportConfig())
	before := append([]uint8(nil), img.Pix...)

	_, _, err := New(DefaultConfig()).Process(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, before, img.Pix)
}
