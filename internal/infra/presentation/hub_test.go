package presentation

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitClients(t, h, 2)

	c := &domain.Classification{Rating: 4, Ideology: 1}
	n := domain.ItemNotification("id:1", domain.StateDone, c, nil)
	if err := h.Emit(context.Background(), n); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		var got domain.Notification
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if got.Identity != "id:1" || got.State != domain.StateDone || got.Rating == nil || *got.Rating != 4 {
			t.Errorf("unexpected notification %+v", got)
		}
	}
}

func TestHub_Disconnect(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, h, 1)

	_ = conn.Close()
	waitClients(t, h, 0)

	// Emitting with no clients is fine.
	if err := h.Emit(context.Background(), domain.Notification{Type: domain.NotificationItem}); err != nil {
		t.Errorf("Emit failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
