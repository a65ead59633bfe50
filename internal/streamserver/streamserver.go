// Package streamserver fans out a running or finished battle's timeline
// events to websocket subscribers. It speaks nothing of the game's own
// network protocol — it only republishes already-decoded
// battle.TimelineEvent values produced by a local pipeline.Decode call,
// which is why this is not the "live network streams" Non-goal SPEC_FULL.md
// carves out. Grounded on the teacher's cmd/eqloghub hub (wsClient/Room/
// broadcastJSON), collapsed to one room per server since one stream server
// process here serves exactly one in-progress battle.
package streamserver

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/landaire/wows-replay-go/internal/battle"
)

// TimelineEventMessage is the wire shape one battle.TimelineEvent is
// broadcast as.
type TimelineEventMessage struct {
	Type string `json:"type"`
	At   int32  `json:"at"`
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

func toMessage(ev battle.TimelineEvent) TimelineEventMessage {
	return TimelineEventMessage{
		Type: "timeline_event",
		At:   int32(ev.At),
		Kind: ev.Kind.String(),
		Data: ev.Data,
	}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn, send: make(chan []byte, 64), done: make(chan struct{})}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		close(c.send)
		_ = c.conn.Close()
	})
}

func (c *wsClient) enqueueBytes(b []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *wsClient) enqueueJSON(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return c.enqueueBytes(b)
}

// Server broadcasts timeline events over websocket as a pipeline run feeds
// them in via Publish. It has no HTTP-level concept of rooms: one Server
// serves one battle stream.
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	subs    map[*wsClient]struct{}
	history []TimelineEventMessage
}

// NewServer returns a Server with no subscribers and no history.
func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		subs:     make(map[*wsClient]struct{}),
	}
}

// Publish broadcasts ev to every current subscriber and retains it so a
// client connecting mid-battle can be caught up on join (spec's `serve`
// mode: late subscribers see everything that happened so far).
func (s *Server) Publish(ev battle.TimelineEvent) {
	msg := toMessage(ev)
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.history = append(s.history, msg)
	for c := range s.subs {
		if !c.enqueueBytes(b) {
			c.close()
			delete(s.subs, c)
		}
	}
	s.mu.Unlock()
}

// Routes returns the HTTP handler serving GET /ws.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("streamserver: ws upgrade failed: %v", err)
		return
	}

	client := newWSClient(conn)
	s.mu.Lock()
	s.subs[client] = struct{}{}
	history := append([]TimelineEventMessage(nil), s.history...)
	s.mu.Unlock()

	for _, msg := range history {
		client.enqueueJSON(msg)
	}

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go s.writePump(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.subs, client)
	s.mu.Unlock()
	client.close()
}

func (s *Server) writePump(c *wsClient) {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	defer func() {
		s.mu.Lock()
		delete(s.subs, c)
		s.mu.Unlock()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SubscriberCount returns how many websocket clients are currently
// connected.
func (s *Server) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
