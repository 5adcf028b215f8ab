// Package ocr wraps the OCR engine used to read cleaned viewports.
//
// The default build links Tesseract through gosseract, which requires the
// tesseract and leptonica development libraries. Build with the
// `notesseract` tag to link a stub that fails every call with ErrNoBackend.
//
// Engines are not safe for concurrent use. Serial gives an engine a single
// owning goroutine and bounds every call with a timeout.
package ocr

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrNoBackend is returned when the binary was built without an OCR backend.
	ErrNoBackend = errors.New("ocr: no engine backend linked; build without -tags=notesseract")
	// ErrTimeout is returned when a call did not finish within its timeout.
	ErrTimeout = errors.New("ocr: timed out")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("ocr: engine closed")
)

// Engine reads the text in a single image.
type Engine interface {
	Text(ctx context.Context, img image.Image) (string, error)
	Close() error
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, img image.Image) (string, error)

// Text calls f.
func (f EngineFunc) Text(ctx context.Context, img image.Image) (string, error) { return f(ctx, img) }

// Close is a no-op.
func (f EngineFunc) Close() error { return nil }

// Options configures the Tesseract backend.
type Options struct {
	// Whitelist restricts the characters the engine may emit.
	Whitelist string
	// Language is a tessdata language code such as "eng".
	Language string
	// PageSegMode is a Tesseract page segmentation mode; 7 treats the image
	// as a single text line.
	PageSegMode int
}

// DefaultWhitelist covers the characters that appear in creature names.
const DefaultWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz'- "

// DefaultOptions returns options for single-line Latin names.
func DefaultOptions() Options {
	return Options{
		Whitelist:   DefaultWhitelist,
		Language:    "eng",
		PageSegMode: 7,
	}
}
