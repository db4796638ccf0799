package http

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func TestPredictWebSocket(t *testing.T) {
	srv, _ := newTestServer(t, 8)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"features":[1, 1]}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp predictResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Prediction != 1.5 {
		t.Fatalf("expected 1.5, got %v", resp.Prediction)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"features":[1]}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var errResp errorResponse
	if err := conn.ReadJSON(&errResp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(errResp.Error, "dimension mismatch") {
		t.Fatalf("expected dimension error, got %q", errResp.Error)
	}
}

func TestPredictWebSocketRejectsOversizedMessage(t *testing.T) {
	srv, _ := newTestServer(t, 8)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// an undersized message would earn an "invalid request" reply instead of a closed socket
	payload := bytes.Repeat([]byte("1"), maxRequestBytes+1)
	err = conn.WriteMessage(websocket.TextMessage, payload)
	if err == nil {
		_, _, err = conn.ReadMessage()
	}
	if err == nil {
		t.Fatal("expected the connection to be closed for an oversized message")
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected an abnormal close, got %v", err)
	}
}
