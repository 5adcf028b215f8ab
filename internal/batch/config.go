package batch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MeKo-Tech/namescan/internal/pipeline"
)

// Config holds the options of a file-based recognition run.
type Config struct {
	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output settings
	Format     string
	OutputFile string
	Quiet      bool
	ShowStats  bool
}

// Status values of a FileResult.
const (
	StatusSighting = "sighting"
	StatusDropped  = "dropped"
	StatusFailed   = "failed"
)

// FileResult is the outcome for one viewport file.
type FileResult struct {
	File       string `json:"file"`
	Status     string `json:"status"`
	Name       string `json:"name,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Distance   int    `json:"distance"`
	Stage      string `json:"stage,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Result holds the result of a batch run.
type Result struct {
	Files    []FileResult
	Stats    pipeline.Stats
	Duration time.Duration
}

// Names returns the resolved names in file order.
func (r *Result) Names() []string {
	var names []string
	for _, f := range r.Files {
		if f.Status == StatusSighting {
			names = append(names, f.Name)
		}
	}
	return names
}

// Failed counts files that produced no transcript.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == StatusFailed {
			n++
		}
	}
	return n
}

// FormatResults formats the batch results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Files, format)
}

// SaveResults writes the formatted results to outputFile, or to w when
// outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
		}
		return nil
	}
	_, _ = fmt.Fprint(w, output)
	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total viewports: %d\n", len(r.Files))
	_, _ = fmt.Fprintf(w, "  Sightings: %d\n", len(r.Names()))
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", r.Failed())
	_, _ = fmt.Fprintf(w, "  Letters kept: %d\n", r.Stats.Letters)
	_, _ = fmt.Fprintf(w, "  Noise components: %d\n", r.Stats.NoiseComponents)
	_, _ = fmt.Fprintf(w, "  Preprocessing: %v\n", time.Duration(r.Stats.PreprocessNs).Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  OCR: %v\n", time.Duration(r.Stats.OCRNs).Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	if n := len(r.Files); n > 0 {
		avg := r.Duration / time.Duration(n)
		_, _ = fmt.Fprintf(w, "  Avg per viewport: %v\n", avg.Round(time.Microsecond))
	}
}
