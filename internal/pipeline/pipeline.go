// Package pipeline orchestrates one recognition tick: viewports are
// preprocessed in parallel, read one at a time by the OCR engine, filtered
// against the noise floor and resolved to known names.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MeKo-Tech/namescan/internal/ocr"
	"github.com/MeKo-Tech/namescan/internal/preprocess"
	"github.com/MeKo-Tech/namescan/internal/resolver"
	"github.com/MeKo-Tech/namescan/internal/segment"
)

// Preprocessor cleans a single viewport for OCR.
type Preprocessor interface {
	Process(ctx context.Context, img image.Image) (*image.NRGBA, segment.Stats, error)
}

// Recognizer turns batches of viewports into resolved names. It is safe
// for concurrent use; OCR calls from concurrent batches are serialized.
type Recognizer struct {
	cfg   Config
	pre   Preprocessor
	ocr   *ocr.Serial
	vocab *resolver.Vocabulary
}

// New creates a Recognizer. It takes ownership of engine, which is closed
// by Close. A nil pre uses the default preprocessing configuration.
func New(cfg Config, engine ocr.Engine, vocab *resolver.Vocabulary, pre Preprocessor) (*Recognizer, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	if vocab == nil || vocab.Len() == 0 {
		return nil, resolver.ErrEmptyVocabulary
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MinTranscriptLength < 0 {
		return nil, fmt.Errorf("pipeline: negative minimum transcript length %d", cfg.MinTranscriptLength)
	}
	if pre == nil {
		pre = preprocess.New(preprocess.DefaultConfig())
	}

	return &Recognizer{
		cfg:   cfg,
		pre:   pre,
		ocr:   ocr.NewSerial(engine, cfg.OCRTimeout),
		vocab: vocab,
	}, nil
}

// Vocabulary returns the vocabulary names resolve against.
func (r *Recognizer) Vocabulary() *resolver.Vocabulary { return r.vocab }

// Close releases the OCR engine.
func (r *Recognizer) Close() error {
	return r.ocr.Close()
}

// Recognize returns the names read from viewports, in viewport order.
// Viewports that fail or yield noise contribute nothing; an empty result
// is not an error.
func (r *Recognizer) Recognize(ctx context.Context, viewports []image.Image) ([]string, error) {
	res, err := r.RecognizeDetailed(ctx, viewports)
	if err != nil {
		return nil, err
	}
	return res.Names(), nil
}

// RecognizeDetailed is Recognize with per-viewport outcomes and timings.
// It fails only when ctx is cancelled.
func (r *Recognizer) RecognizeDetailed(ctx context.Context, viewports []image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	batchSize.Observe(float64(len(viewports)))

	res := &Result{Sightings: []Sighting{}}
	res.Stats.Viewports = len(viewports)
	if len(viewports) == 0 {
		return res, nil
	}

	cleaned, errs, segStats := r.preprocessAll(ctx, viewports)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Stats.PreprocessNs = time.Since(start).Nanoseconds()
	res.Stats.Letters = segStats.Letters
	res.Stats.NoiseComponents = segStats.NoiseComponents

	ocrStart := time.Now()
	for i := range viewports {
		if errs[i] != nil {
			r.fail(res, i, StagePreprocess, errs[i])
			continue
		}
		res.Stats.Preprocessed++

		img := cleaned[i]
		cleaned[i] = nil

		callStart := time.Now()
		text, err := r.ocr.Text(ctx, img)
		ocrDuration.Observe(time.Since(callStart).Seconds())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.fail(res, i, StageOCR, err)
			continue
		}

		r.resolve(res, i, text)
	}
	res.Stats.OCRNs = time.Since(ocrStart).Nanoseconds()
	res.Stats.TotalNs = time.Since(start).Nanoseconds()

	slog.Debug("Recognition batch complete",
		"viewports", len(viewports),
		"sightings", len(res.Sightings),
		"dropped", len(res.Dropped),
		"failures", len(res.Failures),
		"total_ms", time.Duration(res.Stats.TotalNs).Milliseconds())

	return res, nil
}

func (r *Recognizer) resolve(res *Result, index int, text string) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= r.cfg.MinTranscriptLength {
		slog.Debug("Transcript below noise floor", "index", index, "transcript", text)
		viewportsTotal.WithLabelValues("dropped").Inc()
		res.Dropped = append(res.Dropped, Dropped{Index: index, Transcript: text})
		return
	}

	m := r.vocab.Resolve(text)
	resolveDistance.Observe(float64(m.Distance))
	viewportsTotal.WithLabelValues("sighting").Inc()
	res.Sightings = append(res.Sightings, Sighting{
		Index:      index,
		Transcript: text,
		Name:       m.Name,
		Distance:   m.Distance,
	})
}

func (r *Recognizer) fail(res *Result, index int, stage string, err error) {
	if errors.Is(err, segment.ErrDefect) {
		slog.Error("Viewport defect", "index", index, "stage", stage, "error", err)
	} else {
		slog.Warn("Viewport failed", "index", index, "stage", stage, "error", err)
	}
	failuresTotal.WithLabelValues(stage).Inc()
	viewportsTotal.WithLabelValues("failed").Inc()
	res.Failures = append(res.Failures, Failure{Index: index, Stage: stage, Error: err.Error(), Err: err})
}
