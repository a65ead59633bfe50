package streamserver

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/landaire/wows-replay-go/internal/battle"
)

func TestServer_PublishesToConnectedSubscriber(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", s.SubscriberCount())
	}

	s.Publish(battle.TimelineEvent{At: 42, Kind: battle.TimelineShipDestroyed, Data: "victim"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"ShipDestroyed"`) {
		t.Fatalf("message = %q, want it to contain the published event kind", data)
	}
}

func TestServer_LateSubscriberReceivesHistory(t *testing.T) {
	s := NewServer()
	s.Publish(battle.TimelineEvent{At: 1, Kind: battle.TimelineChat, Data: "gg"})

	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"Chat"`) {
		t.Fatalf("message = %q, want the replayed history entry", data)
	}
}
