package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/predictor/prediction-ledger-poc/pkg/contracts/events"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func subscribe(t *testing.T, conn *websocket.Conn, eventID uint32) {
	t.Helper()
	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", EventID: eventID}); err != nil {
		t.Fatal(err)
	}
	// ping/pong confirma que o subscribe já foi processado pelo loop do hub
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatal(err)
	}
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatal(err)
	}
	if pong["type"] != "pong" {
		t.Fatalf("got %v, want pong", pong)
	}
}

func TestHubBroadcastToSubscriber(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)
	subscribe(t, conn, 7)

	hub.Broadcast(events.MarketUpdate{Type: "event_resolved", EventID: 7, WinnersCount: 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var upd events.MarketUpdate
	if err := json.Unmarshal(raw, &upd); err != nil {
		t.Fatal(err)
	}
	if upd.EventID != 7 || upd.Type != "event_resolved" || upd.WinnersCount != 2 {
		t.Errorf("got %+v", upd)
	}
}

func TestHubAllMarketsSubscription(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)
	subscribe(t, conn, 0) // 0 = todos os mercados

	hub.Broadcast(events.MarketUpdate{Type: "event_created", EventID: 42, Title: "final"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var upd events.MarketUpdate
	if err := json.Unmarshal(raw, &upd); err != nil {
		t.Fatal(err)
	}
	if upd.EventID != 42 {
		t.Errorf("got %+v", upd)
	}
}

func TestHubSkipsOtherEvents(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)
	subscribe(t, conn, 7)

	hub.Broadcast(events.MarketUpdate{Type: "event_created", EventID: 8})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("received update for an event the client never subscribed")
	}
}
