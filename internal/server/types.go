package server

import (
	"context"
	"errors"
	"image"
	"net/http"
	"time"

	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/resolver"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recognizer is what the server needs from a pipeline.Recognizer.
type Recognizer interface {
	RecognizeDetailed(ctx context.Context, viewports []image.Image) (*pipeline.Result, error)
	Vocabulary() *resolver.Vocabulary
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	rec         Recognizer
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	version     string
	rateLimiter *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	Version     string
	RateLimit   RateLimitConfig
}

// RateLimitConfig holds per-client limits. Zero disables a single limit.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version,omitempty"`
	Time           string `json:"time"`
	VocabularySize int    `json:"vocabulary_size"`
}

// VocabularyResponse is returned by GET /vocabulary.
type VocabularyResponse struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

// RecognizeResponse is returned by POST /recognize and used for errors.
type RecognizeResponse struct {
	Success bool             `json:"success"`
	Names   []string         `json:"names,omitempty"`
	Files   []string         `json:"files,omitempty"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewServer creates a server around an already built recognizer. The
// server takes ownership of rec and closes it in Close.
func NewServer(config Config, rec Recognizer) (*Server, error) {
	if rec == nil {
		return nil, errors.New("server: recognizer is required")
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 10
	}
	if config.TimeoutSec <= 0 {
		config.TimeoutSec = 30
	}

	s := &Server{
		rec:         rec,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeout:     time.Duration(config.TimeoutSec) * time.Second,
		version:     config.Version,
	}
	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(config.RateLimit)
	}
	return s, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.rec != nil {
		return s.rec.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware("/health", s.healthHandler))
	mux.HandleFunc("/vocabulary", s.corsMiddleware("/vocabulary", s.vocabularyHandler))
	mux.HandleFunc("/recognize", s.corsMiddleware("/recognize", s.rateLimitMiddleware(s.recognizeHandler)))
	mux.HandleFunc("/ws", s.corsMiddleware("/ws", s.rateLimitMiddleware(s.tickWebSocketHandler)))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
