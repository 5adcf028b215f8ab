package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MeKo-Tech/namescan/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Vocabulary.Names = []string{"Gazuzu"}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 80, cfg.Segmentation.MaxOCRSubpixelFFDistance)
	assert.Equal(t, 300, cfg.Segmentation.MinimumResizeWidth)
	assert.Equal(t, 1500, cfg.Segmentation.MaximumLetterPixelCount)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 7, cfg.OCR.PageSegMode)
	assert.Equal(t, 2000, cfg.OCR.TimeoutMs)
	assert.Equal(t, 3, cfg.Recognition.MinTranscriptLength)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Watch.IntervalMs)

	require.NoError(t, cfg.ValidateProcessing())
	require.ErrorIs(t, cfg.Validate(), ErrNoVocabulary)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"vocabulary path only", func(c *Config) { c.Vocabulary = VocabularyConfig{Path: "names.txt"} }, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"zero tolerance", func(c *Config) { c.Segmentation.MaxOCRSubpixelFFDistance = 0 }, "max_ocr_subpixel_ff_distance"},
		{"tolerance overflow", func(c *Config) { c.Segmentation.MaxOCRSubpixelFFDistance = 256 }, "max_ocr_subpixel_ff_distance"},
		{"zero resize width", func(c *Config) { c.Segmentation.MinimumResizeWidth = 0 }, "minimum_resize_width"},
		{"zero letter ceiling", func(c *Config) { c.Segmentation.MaximumLetterPixelCount = 0 }, "maximum_letter_pixel_count"},
		{"empty whitelist", func(c *Config) { c.OCR.Whitelist = "  " }, "ocr.whitelist"},
		{"bad psm", func(c *Config) { c.OCR.PageSegMode = 14 }, "page_seg_mode"},
		{"zero ocr timeout", func(c *Config) { c.OCR.TimeoutMs = 0 }, "ocr.timeout_ms"},
		{"negative workers", func(c *Config) { c.Recognition.Workers = -1 }, "recognition.workers"},
		{"zero task timeout", func(c *Config) { c.Recognition.TaskTimeoutMs = 0 }, "task_timeout_ms"},
		{"zero noise floor", func(c *Config) { c.Recognition.MinTranscriptLength = 0 }, "min_transcript_length"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"zero upload", func(c *Config) { c.Server.MaxUploadMB = 0 }, "max_upload_mb"},
		{"negative rate limit", func(c *Config) { c.Server.RequestsPerMinute = -1 }, "rate limits"},
		{"zero interval", func(c *Config) { c.Watch.IntervalMs = 0 }, "watch.interval_ms"},
		{"negative hash distance", func(c *Config) { c.Watch.HashDistance = -1 }, "hash_distance"},
		{"no vocabulary", func(c *Config) { c.Vocabulary = VocabularyConfig{} }, "no vocabulary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := validConfig()
	cfg.Segmentation.MaxOCRSubpixelFFDistance = 60
	cfg.Segmentation.DebugDir = "/tmp/dbg"
	cfg.Recognition.Workers = 3
	cfg.OCR.TimeoutMs = 1500
	cfg.Watch.Dir = "/captures"

	seg := cfg.ToSegmentConfig()
	assert.Equal(t, uint8(60), seg.MaxSubpixelFFDistance)
	assert.Equal(t, 1500, seg.MaximumLetterPixelCount)

	pre := cfg.ToPreprocessConfig()
	assert.Equal(t, 300, pre.MinResizeWidth)
	assert.Equal(t, seg, pre.Segment)
	assert.Equal(t, "/tmp/dbg", pre.DebugDir)

	opts := cfg.ToOCROptions()
	assert.Equal(t, cfg.OCR.Whitelist, opts.Whitelist)
	assert.Equal(t, 7, opts.PageSegMode)

	pc := cfg.ToPipelineConfig()
	assert.Equal(t, 3, pc.Workers)
	assert.Equal(t, 5*time.Second, pc.TaskTimeout)
	assert.Equal(t, 1500*time.Millisecond, pc.OCRTimeout)
	assert.Equal(t, 3, pc.MinTranscriptLength)

	tc := cfg.ToTrackerConfig()
	assert.Equal(t, "/captures", tc.Dir)
	assert.Equal(t, time.Second, tc.Interval)
	assert.Equal(t, 2, tc.HashDistance)
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("Skrolk\nGazuzu\n"), 0o600))

	cfg := DefaultConfig()
	cfg.Vocabulary = VocabularyConfig{Path: path, Names: []string{"Dharak", "Skrolk"}}
	v, err := cfg.LoadVocabulary()
	require.NoError(t, err)
	assert.Equal(t, []string{"Skrolk", "Gazuzu", "Dharak"}, v.Names())

	cfg.Vocabulary = VocabularyConfig{}
	_, err = cfg.LoadVocabulary()
	require.ErrorIs(t, err, ErrNoVocabulary)

	cfg.Vocabulary = VocabularyConfig{Names: []string{" "}}
	_, err = cfg.LoadVocabulary()
	require.ErrorIs(t, err, resolver.ErrEmptyVocabulary)

	cfg.Vocabulary = VocabularyConfig{Path: filepath.Join(dir, "missing.txt")}
	_, err = cfg.LoadVocabulary()
	require.Error(t, err)
}

func TestYAML(t *testing.T) {
	cfg := DefaultConfig()
	data, err := cfg.YAML()
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "max_ocr_subpixel_ff_distance: 80")
	assert.Contains(t, out, "minimum_resize_width: 300")
	assert.Contains(t, out, "min_transcript_length: 3")
}
