package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/utils"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second

	// wsMaxMessageBytes bounds a tick; base64 inflates images by a third.
	wsMaxMessageBytes = 32 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Overlay clients run from arbitrary local origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// TickRequest is one WebSocket text message: the viewports captured in a
// single tick. Viewports are base64 in JSON.
type TickRequest struct {
	Type      string   `json:"type"`
	Seq       int64    `json:"seq,omitempty"`
	Viewports [][]byte `json:"viewports"`
}

// TickResponse answers a TickRequest.
type TickResponse struct {
	Type      string           `json:"type"` // "sightings" or "error"
	Seq       int64            `json:"seq,omitempty"`
	Names     []string         `json:"names,omitempty"`
	Result    *pipeline.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"error_type,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// tickWebSocketHandler upgrades the connection and answers ticks until
// the client goes away.
func (s *Server) tickWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(wsMaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket closed unexpectedly", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if messageType == websocket.TextMessage {
			s.handleTick(ctx, conn, data)
		}
	}
}

// handleTick decodes and recognizes one tick. Every request gets exactly
// one reply.
func (s *Server) handleTick(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	var req TickRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, 0, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if req.Type != "tick" {
		s.sendWebSocketError(conn, req.Seq, "invalid_request", "Unsupported request type: "+req.Type)
		return
	}

	viewports := make([]image.Image, 0, len(req.Viewports))
	for i, raw := range req.Viewports {
		img, _, err := utils.DecodeImage(raw)
		if err != nil {
			s.sendWebSocketError(conn, req.Seq, "invalid_request", fmt.Sprintf("Viewport %d: %v", i, err))
			return
		}
		viewports = append(viewports, img)
	}

	res, err := s.recognize(ctx, "websocket", viewports)
	if err != nil {
		s.sendWebSocketError(conn, req.Seq, "processing_error", fmt.Sprintf("Recognition failed: %v", err))
		return
	}
	s.sendWebSocketResponse(conn, TickResponse{
		Type:   "sightings",
		Seq:    req.Seq,
		Names:  res.Names(),
		Result: res,
	})
}

func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response TickResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (s *Server) sendWebSocketError(conn WebSocketConnWriter, seq int64, errorType, message string) {
	s.sendWebSocketResponse(conn, TickResponse{
		Type:      "error",
		Seq:       seq,
		Error:     message,
		ErrorType: errorType,
	})
}
