//go:build notesseract

package ocr

import (
	"context"
	"image"
)

// Tesseract is unavailable in this build.
type Tesseract struct{}

// NewTesseract always fails with ErrNoBackend.
func NewTesseract(_ Options) (*Tesseract, error) { return nil, ErrNoBackend }

// Text always fails with ErrNoBackend.
func (t *Tesseract) Text(_ context.Context, _ image.Image) (string, error) { return "", ErrNoBackend }

// Close is a no-op.
func (t *Tesseract) Close() error { return nil }
