//nolint:lll
package config

// Config represents the complete configuration for namescan. It covers all
// commands (recognize, segment, serve, watch) and is loaded from a
// configuration file, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Segmentation SegmentationConfig `mapstructure:"segmentation" yaml:"segmentation" json:"segmentation"`
	OCR          OCRConfig          `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Recognition  RecognitionConfig  `mapstructure:"recognition" yaml:"recognition" json:"recognition"`
	Vocabulary   VocabularyConfig   `mapstructure:"vocabulary" yaml:"vocabulary" json:"vocabulary"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output" json:"output"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server" json:"server"`
	Watch        WatchConfig        `mapstructure:"watch" yaml:"watch" json:"watch"`
}

// SegmentationConfig holds the preprocessing tolerances.
type SegmentationConfig struct {
	MaxOCRSubpixelFFDistance int    `mapstructure:"max_ocr_subpixel_ff_distance" yaml:"max_ocr_subpixel_ff_distance" json:"max_ocr_subpixel_ff_distance"`
	MinimumResizeWidth       int    `mapstructure:"minimum_resize_width" yaml:"minimum_resize_width" json:"minimum_resize_width"`
	MaximumLetterPixelCount  int    `mapstructure:"maximum_letter_pixel_count" yaml:"maximum_letter_pixel_count" json:"maximum_letter_pixel_count"`
	DebugDir                 string `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// OCRConfig configures the Tesseract engine.
type OCRConfig struct {
	Whitelist   string `mapstructure:"whitelist" yaml:"whitelist" json:"whitelist"`
	Language    string `mapstructure:"language" yaml:"language" json:"language"`
	PageSegMode int    `mapstructure:"page_seg_mode" yaml:"page_seg_mode" json:"page_seg_mode"`
	TimeoutMs   int    `mapstructure:"timeout_ms" yaml:"timeout_ms" json:"timeout_ms"`
}

// RecognitionConfig configures batch orchestration.
type RecognitionConfig struct {
	Workers             int `mapstructure:"workers" yaml:"workers" json:"workers"`
	TaskTimeoutMs       int `mapstructure:"task_timeout_ms" yaml:"task_timeout_ms" json:"task_timeout_ms"`
	MinTranscriptLength int `mapstructure:"min_transcript_length" yaml:"min_transcript_length" json:"min_transcript_length"`
}

// VocabularyConfig names the source of known names. Names from Path come
// first, followed by the inline Names.
type VocabularyConfig struct {
	Path  string   `mapstructure:"path" yaml:"path" json:"path"`
	Names []string `mapstructure:"names" yaml:"names" json:"names"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Rate limiting, per client address
	RateLimitEnabled  bool  `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     int64 `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}

// WatchConfig configures the capture-directory tracker.
type WatchConfig struct {
	Dir             string `mapstructure:"dir" yaml:"dir" json:"dir"`
	IntervalMs      int    `mapstructure:"interval_ms" yaml:"interval_ms" json:"interval_ms"`
	HashDistance    int    `mapstructure:"hash_distance" yaml:"hash_distance" json:"hash_distance"`
	RemoveProcessed bool   `mapstructure:"remove_processed" yaml:"remove_processed" json:"remove_processed"`
}
