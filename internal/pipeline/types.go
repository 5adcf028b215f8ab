package pipeline

import (
	"errors"
	"runtime"
	"time"
)

var (
	// ErrTaskTimeout marks a viewport whose preprocessing did not finish in time.
	ErrTaskTimeout = errors.New("preprocessing timed out")
	// ErrNoEngine is returned by New when no OCR engine is supplied.
	ErrNoEngine = errors.New("pipeline: OCR engine is required")
)

// Stage names used in Failure and metrics labels.
const (
	StagePreprocess = "preprocess"
	StageOCR        = "ocr"
)

// Config holds orchestration parameters.
type Config struct {
	// Workers is the number of parallel preprocessing workers (0 = runtime.NumCPU()).
	Workers int
	// TaskTimeout bounds the preprocessing of a single viewport (0 = no bound).
	TaskTimeout time.Duration
	// OCRTimeout bounds a single OCR call (0 = no bound).
	OCRTimeout time.Duration
	// MinTranscriptLength is the noise floor: transcripts with at most this
	// many runes never reach the resolver.
	MinTranscriptLength int
	// Progress is notified as viewports finish preprocessing.
	Progress ProgressCallback
}

// DefaultConfig returns the orchestration defaults.
func DefaultConfig() Config {
	return Config{
		Workers:             runtime.NumCPU(),
		TaskTimeout:         5 * time.Second,
		OCRTimeout:          2 * time.Second,
		MinTranscriptLength: 3,
	}
}

// Sighting is a transcript that resolved to a known name.
type Sighting struct {
	Index      int    `json:"index"`
	Transcript string `json:"transcript"`
	Name       string `json:"name"`
	Distance   int    `json:"distance"`
}

// Failure records a viewport that produced no transcript.
type Failure struct {
	Index int    `json:"index"`
	Stage string `json:"stage"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// Dropped records a transcript rejected by the noise floor.
type Dropped struct {
	Index      int    `json:"index"`
	Transcript string `json:"transcript"`
}

// Stats summarizes one recognition batch.
type Stats struct {
	Viewports       int `json:"viewports"`
	Preprocessed    int `json:"preprocessed"`
	Letters         int `json:"letters"`
	NoiseComponents int `json:"noise_components"`

	PreprocessNs int64 `json:"preprocess_ns"`
	OCRNs        int64 `json:"ocr_ns"`
	TotalNs      int64 `json:"total_ns"`
}

// Result is the detailed outcome of a batch. Every viewport index appears
// in exactly one of Sightings, Dropped and Failures; each list is ordered
// by index.
type Result struct {
	Sightings []Sighting `json:"sightings"`
	Dropped   []Dropped  `json:"dropped,omitempty"`
	Failures  []Failure  `json:"failures,omitempty"`
	Stats     Stats      `json:"stats"`
}

// Names returns the resolved names in viewport order.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Sightings))
	for _, s := range r.Sightings {
		names = append(names, s.Name)
	}
	return names
}
