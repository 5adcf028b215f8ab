// Package batch runs recognition over viewport image files: discovery,
// loading, one recognizer batch, and result formatting.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/MeKo-Tech/namescan/internal/pipeline"
)

// ErrNoImages is returned when discovery finds nothing to process.
var ErrNoImages = errors.New("no image files found")

// Recognizer is the part of pipeline.Recognizer a batch run needs.
type Recognizer interface {
	RecognizeDetailed(ctx context.Context, viewports []image.Image) (*pipeline.Result, error)
}

// ProcessBatch discovers the viewport files under paths and recognizes
// them as a single batch. Files that cannot be loaded are reported as
// failed without stopping the others.
func ProcessBatch(ctx context.Context, paths []string, rec Recognizer, config *Config) (*Result, error) {
	files, err := discoverImageFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	startTime := time.Now()
	results := make([]FileResult, len(files))
	viewports, loaded := loadViewports(files, results)

	detailed, err := rec.RecognizeDetailed(ctx, viewports)
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}
	mergeResults(results, loaded, detailed)

	return &Result{
		Files:    results,
		Stats:    detailed.Stats,
		Duration: time.Since(startTime),
	}, nil
}
