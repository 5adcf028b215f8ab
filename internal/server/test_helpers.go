package server

import (
	"bytes"
	"context"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/resolver"
	"github.com/MeKo-Tech/namescan/internal/testutil"
	"github.com/stretchr/testify/require"
)

// mockRecognizer answers every batch with one sighting per viewport, or
// with err when set.
type mockRecognizer struct {
	mu      sync.Mutex
	vocab   *resolver.Vocabulary
	err     error
	batches [][]image.Image
	closed  bool
}

func newMockRecognizer(t *testing.T, names ...string) *mockRecognizer {
	t.Helper()
	if len(names) == 0 {
		names = []string{"Gazuzu", "Skrolk", "Dharak"}
	}
	vocab, err := resolver.NewVocabulary(names)
	require.NoError(t, err)
	return &mockRecognizer{vocab: vocab}
}

func (m *mockRecognizer) RecognizeDetailed(ctx context.Context, viewports []image.Image) (*pipeline.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, viewports)
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &pipeline.Result{Sightings: []pipeline.Sighting{}}
	res.Stats.Viewports = len(viewports)
	names := m.vocab.Names()
	for i := range viewports {
		name := names[i%len(names)]
		res.Sightings = append(res.Sightings, pipeline.Sighting{Index: i, Transcript: name, Name: name})
	}
	return res, nil
}

func (m *mockRecognizer) Vocabulary() *resolver.Vocabulary { return m.vocab }

func (m *mockRecognizer) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *mockRecognizer) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// newTestServer builds a Server around rec with test-friendly limits.
func newTestServer(t *testing.T, rec Recognizer) *Server {
	t.Helper()
	s, err := NewServer(Config{CORSOrigin: "*", MaxUploadMB: 1, TimeoutSec: 5, Version: "test"}, rec)
	require.NoError(t, err)
	return s
}

// viewportPNG renders a synthetic nameplate as PNG bytes.
func viewportPNG(t *testing.T, text string) []byte {
	t.Helper()
	cfg := testutil.DefaultViewportConfig()
	cfg.Text = text
	return testutil.EncodePNG(t, testutil.GenerateViewport(cfg))
}

type upload struct {
	field    string
	filename string
	data     []byte
}

// createMultipartRequest builds a POST /recognize request carrying the
// uploads and extra form fields.
func createMultipartRequest(t *testing.T, uploads []upload, extraFields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, u := range uploads {
		part, err := writer.CreateFormFile(u.field, u.filename)
		require.NoError(t, err)
		_, err = part.Write(u.data)
		require.NoError(t, err)
	}
	for key, value := range extraFields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/recognize", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
