//go:build !notesseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract is an Engine backed by a gosseract client.
type Tesseract struct {
	client *gosseract.Client
	opts   Options
}

// NewTesseract creates a Tesseract engine configured with opts.
func NewTesseract(opts Options) (*Tesseract, error) {
	client := gosseract.NewClient()

	if opts.Language != "" {
		if err := client.SetLanguage(opts.Language); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to set OCR language: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}

	return &Tesseract{client: client, opts: opts}, nil
}

// Text runs recognition on img. The call itself cannot be interrupted; ctx
// is only checked before it starts.
func (t *Tesseract) Text(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases the Tesseract handle.
func (t *Tesseract) Close() error {
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}
