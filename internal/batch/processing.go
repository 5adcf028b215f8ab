package batch

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/utils"
)

// loadAndValidateImage loads an image, warning when it exceeds the usual
// viewport constraints.
func loadAndValidateImage(path string) (image.Image, error) {
	if !utils.IsSupportedImage(path) {
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}

	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if err := utils.ValidateImageConstraints(img, utils.DefaultImageConstraints()); err != nil {
		slog.Warn("Image does not meet viewport constraints", "file", path, "error", err)
	}
	return img, nil
}

// loadViewports loads every file and seeds results with the file names.
// Load failures are recorded in results directly. It returns the loaded
// images and, for each, its index in files.
func loadViewports(files []string, results []FileResult) ([]image.Image, []int) {
	viewports := make([]image.Image, 0, len(files))
	loaded := make([]int, 0, len(files))
	for i, path := range files {
		results[i].File = path
		img, err := loadAndValidateImage(path)
		if err != nil {
			slog.Warn("Viewport could not be loaded", "file", path, "error", err)
			results[i].Status = StatusFailed
			results[i].Stage = "load"
			results[i].Error = err.Error()
			continue
		}
		viewports = append(viewports, img)
		loaded = append(loaded, i)
	}
	return viewports, loaded
}

// mergeResults maps the recognizer's per-index outcome back onto files.
func mergeResults(results []FileResult, loaded []int, res *pipeline.Result) {
	for _, s := range res.Sightings {
		r := &results[loaded[s.Index]]
		r.Status = StatusSighting
		r.Name = s.Name
		r.Transcript = s.Transcript
		r.Distance = s.Distance
	}
	for _, d := range res.Dropped {
		r := &results[loaded[d.Index]]
		r.Status = StatusDropped
		r.Transcript = d.Transcript
	}
	for _, f := range res.Failures {
		r := &results[loaded[f.Index]]
		r.Status = StatusFailed
		r.Stage = f.Stage
		r.Error = f.Error
	}
}
