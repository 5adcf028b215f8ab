package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/utils"
)

const (
	formatText = "text"

	// viewportField is the multipart field carrying viewport images.
	viewportField = "viewport"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if s.rec != nil {
		response.VocabularySize = s.rec.Vocabulary().Len()
	}
	s.writeJSON(w, http.StatusOK, response)
}

// vocabularyHandler lists the names the resolver maps transcripts onto.
func (s *Server) vocabularyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.rec == nil {
		s.writeErrorResponse(w, "Recognizer not initialized", http.StatusServiceUnavailable)
		return
	}

	names := s.rec.Vocabulary().Names()
	s.writeJSON(w, http.StatusOK, VocabularyResponse{Names: names, Count: len(names)})
}

// recognizeHandler runs one batch over the uploaded viewport files.
func (s *Server) recognizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.rec == nil {
		s.writeErrorResponse(w, "Recognizer not initialized", http.StatusServiceUnavailable)
		return
	}

	viewports, files, ok := s.parseViewports(w, r)
	if !ok {
		recognizeRequestsTotal.WithLabelValues("http", "bad_request").Inc()
		return
	}

	res, err := s.recognize(r.Context(), "http", viewports)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		s.writeErrorResponse(w, fmt.Sprintf("Recognition failed: %v", err), status)
		return
	}

	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}
	if format == formatText {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		var b strings.Builder
		for _, name := range res.Names() {
			b.WriteString(name)
			b.WriteByte('\n')
		}
		_, _ = io.WriteString(w, b.String())
		return
	}

	s.writeJSON(w, http.StatusOK, RecognizeResponse{
		Success: true,
		Names:   res.Names(),
		Files:   files,
		Result:  res,
	})
}

// recognize bounds a batch by the server timeout and records metrics.
func (s *Server) recognize(ctx context.Context, transport string, viewports []image.Image) (*pipeline.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.rec.RecognizeDetailed(ctx, viewports)
	recognizeDuration.WithLabelValues(transport).Observe(time.Since(start).Seconds())
	if err != nil {
		recognizeRequestsTotal.WithLabelValues(transport, "error").Inc()
		slog.Warn("Recognition request failed", "transport", transport, "viewports", len(viewports), "error", err)
		return nil, err
	}
	recognizeRequestsTotal.WithLabelValues(transport, "success").Inc()
	sightingsPerRequest.WithLabelValues(transport).Observe(float64(len(res.Sightings)))
	return res, nil
}

// parseViewports decodes every file in the viewport field. On failure the
// error response has been written and ok is false.
func (s *Server) parseViewports(w http.ResponseWriter, r *http.Request) ([]image.Image, []string, bool) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return nil, nil, false
	}

	headers := r.MultipartForm.File[viewportField]
	if len(headers) == 0 {
		s.writeErrorResponse(w, "No viewport files provided", http.StatusBadRequest)
		return nil, nil, false
	}

	viewports := make([]image.Image, 0, len(headers))
	files := make([]string, 0, len(headers))
	for _, h := range headers {
		img, err := decodeUpload(h)
		if err != nil {
			s.writeErrorResponse(w, fmt.Sprintf("Invalid image %q: %v", h.Filename, err), http.StatusBadRequest)
			return nil, nil, false
		}
		viewports = append(viewports, img)
		files = append(files, h.Filename)
	}
	return viewports, files, true
}

func decodeUpload(h *multipart.FileHeader) (image.Image, error) {
	uploadSizeBytes.Observe(float64(h.Size))

	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	img, _, err := utils.DecodeImage(data)
	return img, err
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, RecognizeResponse{Success: false, Error: message})
}
