// Package preprocess turns a captured viewport into a two-tone image that
// Tesseract can read: it upscales the crop to a fixed width and runs the
// segmentation pass over the result.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/MeKo-Tech/namescan/internal/segment"
	"github.com/MeKo-Tech/namescan/internal/utils"
)

// DefaultMinResizeWidth is the width every viewport is resampled to.
const DefaultMinResizeWidth = 300

// Config holds preprocessing parameters.
type Config struct {
	MinResizeWidth int
	Segment        segment.Config
	// DebugDir, when set, receives the resized and cleaned image of every
	// processed viewport.
	DebugDir string
}

// DefaultConfig returns the preprocessing defaults.
func DefaultConfig() Config {
	return Config{
		MinResizeWidth: DefaultMinResizeWidth,
		Segment:        segment.DefaultConfig(),
	}
}

// Preprocessor is safe for concurrent use; it holds no per-image state.
type Preprocessor struct {
	cfg Config
	seq atomic.Uint64
}

// New creates a Preprocessor. Zero fields fall back to defaults.
func New(cfg Config) *Preprocessor {
	def := DefaultConfig()
	if cfg.MinResizeWidth <= 0 {
		cfg.MinResizeWidth = def.MinResizeWidth
	}
	if cfg.Segment.MaximumLetterPixelCount <= 0 {
		cfg.Segment.MaximumLetterPixelCount = def.Segment.MaximumLetterPixelCount
	}
	return &Preprocessor{cfg: cfg}
}

// Config returns the effective configuration.
func (p *Preprocessor) Config() Config { return p.cfg }

// Process resizes img to the configured width and returns the cleaned
// two-tone image together with the segmentation statistics.
func (p *Preprocessor) Process(ctx context.Context, img image.Image) (*image.NRGBA, segment.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, segment.Stats{}, err
	}

	resized, err := utils.ResizeToWidth(img, p.cfg.MinResizeWidth)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidDimensions) || img == nil {
			return nil, segment.Stats{}, fmt.Errorf("%w: %w", segment.ErrDefect, err)
		}
		return nil, segment.Stats{}, err
	}

	var id uint64
	if p.cfg.DebugDir != "" {
		id = p.seq.Add(1)
		p.dump(resized, id, "resized")
	}

	cleaned, st, err := segment.Clean(ctx, resized, p.cfg.Segment)
	if err != nil {
		return nil, st, err
	}

	if p.cfg.DebugDir != "" {
		p.dump(cleaned, id, "cleaned")
	}
	return cleaned, st, nil
}

func (p *Preprocessor) dump(img *image.NRGBA, id uint64, stage string) {
	path := filepath.Join(p.cfg.DebugDir, fmt.Sprintf("viewport-%d-%06d-%s.png", os.Getpid(), id, stage))
	if err := utils.SaveImage(img, path); err != nil {
		slog.Warn("Failed to write debug image", "path", path, "error", err)
	}
}
