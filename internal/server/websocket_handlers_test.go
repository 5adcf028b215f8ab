package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/namescan/internal/ocr"
	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/preprocess"
	"github.com/MeKo-Tech/namescan/internal/resolver"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWebSocketConn struct {
	sent [][]byte
	err  error
}

func (m *mockWebSocketConn) WriteMessage(_ int, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, data)
	return nil
}

func (m *mockWebSocketConn) responses(t *testing.T) []TickResponse {
	t.Helper()
	out := make([]TickResponse, len(m.sent))
	for i, data := range m.sent {
		require.NoError(t, json.Unmarshal(data, &out[i]))
	}
	return out
}

func tickJSON(t *testing.T, req TickRequest) []byte {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return data
}

func TestServer_HandleTick(t *testing.T) {
	rec := newMockRecognizer(t)
	server := newTestServer(t, rec)
	conn := &mockWebSocketConn{}

	server.handleTick(context.Background(), conn, tickJSON(t, TickRequest{
		Type:      "tick",
		Seq:       7,
		Viewports: [][]byte{viewportPNG(t, "Gazuzu"), viewportPNG(t, "Skrolk")},
	}))

	responses := conn.responses(t)
	require.Len(t, responses, 1)
	assert.Equal(t, "sightings", responses[0].Type)
	assert.Equal(t, int64(7), responses[0].Seq)
	assert.Equal(t, []string{"Gazuzu", "Skrolk"}, responses[0].Names)
	require.NotNil(t, responses[0].Result)
	assert.Len(t, responses[0].Result.Sightings, 2)
}

func TestServer_HandleTick_Base64Payload(t *testing.T) {
	server := newTestServer(t, newMockRecognizer(t))
	conn := &mockWebSocketConn{}

	// []byte fields travel as base64 strings.
	raw := tickJSON(t, TickRequest{Type: "tick", Viewports: [][]byte{viewportPNG(t, "Gazuzu")}})
	assert.True(t, strings.Contains(string(raw), `"viewports":["iVBOR`))

	server.handleTick(context.Background(), conn, raw)
	assert.Equal(t, "sightings", conn.responses(t)[0].Type)
}

func TestServer_HandleTick_Errors(t *testing.T) {
	tests := []struct {
		name      string
		data      func(t *testing.T) []byte
		recErr    error
		errorType string
		message   string
	}{
		{
			name:      "invalid json",
			data:      func(*testing.T) []byte { return []byte("{not json") },
			errorType: "invalid_request",
			message:   "Failed to parse request",
		},
		{
			name:      "unknown type",
			data:      func(t *testing.T) []byte { return tickJSON(t, TickRequest{Type: "image"}) },
			errorType: "invalid_request",
			message:   "Unsupported request type: image",
		},
		{
			name: "bad viewport",
			data: func(t *testing.T) []byte {
				return tickJSON(t, TickRequest{Type: "tick", Viewports: [][]byte{viewportPNG(t, "Gazuzu"), []byte("junk")}})
			},
			errorType: "invalid_request",
			message:   "Viewport 1",
		},
		{
			name:      "recognizer failure",
			data:      func(t *testing.T) []byte { return tickJSON(t, TickRequest{Type: "tick", Seq: 3}) },
			recErr:    errors.New("engine gone"),
			errorType: "processing_error",
			message:   "Recognition failed: engine gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newMockRecognizer(t)
			rec.err = tt.recErr
			server := newTestServer(t, rec)
			conn := &mockWebSocketConn{}

			server.handleTick(context.Background(), conn, tt.data(t))

			responses := conn.responses(t)
			require.Len(t, responses, 1)
			assert.Equal(t, "error", responses[0].Type)
			assert.Equal(t, tt.errorType, responses[0].ErrorType)
			assert.Contains(t, responses[0].Error, tt.message)
		})
	}
}

func TestServer_SendWebSocketResponse_WriteError(t *testing.T) {
	server := &Server{}
	conn := &mockWebSocketConn{err: errors.New("closed")}
	server.sendWebSocketResponse(conn, TickResponse{Type: "sightings"})
	assert.Empty(t, conn.sent)
}

// heightEngine answers from the resized viewport height so each source
// width maps to a transcript.
func heightEngine(transcripts map[int]string) ocr.EngineFunc {
	return func(_ context.Context, img image.Image) (string, error) {
		return transcripts[img.Bounds().Dy()], nil
	}
}

func TestServer_WebSocketEndToEnd(t *testing.T) {
	vocab, err := resolver.NewVocabulary([]string{"Gazuzu", "Skrolk", "Dharak"})
	require.NoError(t, err)
	cfg := pipeline.DefaultConfig()
	cfg.Workers = 2
	rec, err := pipeline.New(cfg, heightEngine(map[int]string{60: "Gazuzv"}), vocab,
		preprocess.New(preprocess.DefaultConfig()))
	require.NoError(t, err)

	server := newTestServer(t, rec)
	t.Cleanup(func() { _ = server.Close() })
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteJSON(TickRequest{
		Type:      "tick",
		Seq:       1,
		Viewports: [][]byte{viewportPNG(t, "Gazuzu")},
	}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	var reply TickResponse
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "sightings", reply.Type)
	assert.Equal(t, int64(1), reply.Seq)
	assert.Equal(t, []string{"Gazuzu"}, reply.Names)
	require.NotNil(t, reply.Result)
	assert.Equal(t, 1, reply.Result.Sightings[0].Distance)
}
