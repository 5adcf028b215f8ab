package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/namescan/internal/ocr"
	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/preprocess"
	"github.com/MeKo-Tech/namescan/internal/resolver"
	"github.com/MeKo-Tech/namescan/internal/segment"
	"github.com/MeKo-Tech/namescan/internal/tracker"
)

// ErrNoVocabulary is returned when neither a vocabulary file nor inline
// names are configured.
var ErrNoVocabulary = errors.New("no vocabulary configured: set vocabulary.path or vocabulary.names")

// DefaultConfig returns a configuration with the tuned defaults.
func DefaultConfig() Config {
	seg := segment.DefaultConfig()
	opts := ocr.DefaultOptions()
	return Config{
		LogLevel: "info",
		Segmentation: SegmentationConfig{
			MaxOCRSubpixelFFDistance: int(seg.MaxSubpixelFFDistance),
			MinimumResizeWidth:       preprocess.DefaultMinResizeWidth,
			MaximumLetterPixelCount:  seg.MaximumLetterPixelCount,
		},
		OCR: OCRConfig{
			Whitelist:   opts.Whitelist,
			Language:    opts.Language,
			PageSegMode: opts.PageSegMode,
			TimeoutMs:   2000,
		},
		Recognition: RecognitionConfig{
			Workers:             0,
			TaskTimeoutMs:       5000,
			MinTranscriptLength: 3,
		},
		Vocabulary: VocabularyConfig{Names: []string{}},
		Output:     OutputConfig{Format: "text"},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,

			RequestsPerMinute: 600,
			RequestsPerHour:   20000,
			MaxRequestsPerDay: 200000,
			MaxDataPerDay:     1 << 30,
		},
		Watch: WatchConfig{
			IntervalMs:   1000,
			HashDistance: 2,
		},
	}
}

// Validate checks every value the recognition core trusts without
// re-checking, plus the presence of a vocabulary source.
func (c *Config) Validate() error {
	if err := c.ValidateProcessing(); err != nil {
		return err
	}
	if c.Vocabulary.Path == "" && len(c.Vocabulary.Names) == 0 {
		return ErrNoVocabulary
	}
	return nil
}

// ValidateProcessing validates everything except the vocabulary source; it
// is enough for commands that never resolve names.
func (c *Config) ValidateProcessing() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	s := c.Segmentation
	if s.MaxOCRSubpixelFFDistance <= 0 || s.MaxOCRSubpixelFFDistance > 255 {
		return fmt.Errorf("invalid segmentation.max_ocr_subpixel_ff_distance: %d (must be between 1 and 255)", s.MaxOCRSubpixelFFDistance)
	}
	if err := positive("segmentation.minimum_resize_width", s.MinimumResizeWidth); err != nil {
		return err
	}
	if err := positive("segmentation.maximum_letter_pixel_count", s.MaximumLetterPixelCount); err != nil {
		return err
	}

	if strings.TrimSpace(c.OCR.Whitelist) == "" {
		return errors.New("invalid ocr.whitelist: must not be empty")
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return fmt.Errorf("invalid ocr.page_seg_mode: %d (must be between 0 and 13)", c.OCR.PageSegMode)
	}
	if err := positive("ocr.timeout_ms", c.OCR.TimeoutMs); err != nil {
		return err
	}

	if c.Recognition.Workers < 0 {
		return fmt.Errorf("invalid recognition.workers: %d (must not be negative)", c.Recognition.Workers)
	}
	if err := positive("recognition.task_timeout_ms", c.Recognition.TaskTimeoutMs); err != nil {
		return err
	}
	if err := positive("recognition.min_transcript_length", c.Recognition.MinTranscriptLength); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if err := positive("server.max_upload_mb", c.Server.MaxUploadMB); err != nil {
		return err
	}
	if err := positive("server.timeout_sec", c.Server.TimeoutSec); err != nil {
		return err
	}
	if c.Server.RequestsPerMinute < 0 || c.Server.RequestsPerHour < 0 ||
		c.Server.MaxRequestsPerDay < 0 || c.Server.MaxDataPerDay < 0 {
		return errors.New("server rate limits must not be negative (0 disables a limit)")
	}

	if err := positive("watch.interval_ms", c.Watch.IntervalMs); err != nil {
		return err
	}
	if c.Watch.HashDistance < 0 {
		return fmt.Errorf("invalid watch.hash_distance: %d (must not be negative)", c.Watch.HashDistance)
	}
	return nil
}

func positive(name string, v int) error {
	if v <= 0 {
		return fmt.Errorf("invalid %s: %d (must be positive)", name, v)
	}
	return nil
}

// ToSegmentConfig converts to segment.Config.
func (c *Config) ToSegmentConfig() segment.Config {
	return segment.Config{
		MaxSubpixelFFDistance:   uint8(c.Segmentation.MaxOCRSubpixelFFDistance), //nolint:gosec // validated to 1..255
		MaximumLetterPixelCount: c.Segmentation.MaximumLetterPixelCount,
	}
}

// ToPreprocessConfig converts to preprocess.Config.
func (c *Config) ToPreprocessConfig() preprocess.Config {
	return preprocess.Config{
		MinResizeWidth: c.Segmentation.MinimumResizeWidth,
		Segment:        c.ToSegmentConfig(),
		DebugDir:       c.Segmentation.DebugDir,
	}
}

// ToOCROptions converts to ocr.Options.
func (c *Config) ToOCROptions() ocr.Options {
	return ocr.Options{
		Whitelist:   c.OCR.Whitelist,
		Language:    c.OCR.Language,
		PageSegMode: c.OCR.PageSegMode,
	}
}

// ToPipelineConfig converts to pipeline.Config.
func (c *Config) ToPipelineConfig() pipeline.Config {
	return pipeline.Config{
		Workers:             c.Recognition.Workers,
		TaskTimeout:         time.Duration(c.Recognition.TaskTimeoutMs) * time.Millisecond,
		OCRTimeout:          time.Duration(c.OCR.TimeoutMs) * time.Millisecond,
		MinTranscriptLength: c.Recognition.MinTranscriptLength,
	}
}

// ToTrackerConfig converts to tracker.Config.
func (c *Config) ToTrackerConfig() tracker.Config {
	return tracker.Config{
		Dir:             c.Watch.Dir,
		Interval:        time.Duration(c.Watch.IntervalMs) * time.Millisecond,
		HashDistance:    c.Watch.HashDistance,
		RemoveProcessed: c.Watch.RemoveProcessed,
	}
}

// LoadVocabulary builds the vocabulary from the file, if any, followed by
// the inline names.
func (c *Config) LoadVocabulary() (*resolver.Vocabulary, error) {
	var names []string
	if c.Vocabulary.Path != "" {
		v, err := resolver.LoadVocabulary(c.Vocabulary.Path)
		if err != nil {
			return nil, err
		}
		names = v.Names()
	}
	names = append(names, c.Vocabulary.Names...)
	if len(names) == 0 {
		return nil, ErrNoVocabulary
	}
	return resolver.NewVocabulary(names)
}
