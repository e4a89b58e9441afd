package alerts

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"MandiPulse/internal/domain/models"
	applogger "MandiPulse/pkg/logger"
)

const (
	writeWait = 10 * time.Second
	frameType = "anomaly"
)

// Frame is the envelope written to subscribers.
type Frame struct {
	Type string              `json:"type"`
	Data models.PriceVerdict `json:"data"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans anomalous verdicts out to websocket subscribers. Slow
// subscribers lose frames instead of blocking the broadcaster.
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	bufferSize   int
	log          *applogger.Logger

	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewHub creates a hub; checkOrigin may be nil to accept any origin.
func NewHub(pingInterval time.Duration, bufferSize int, checkOrigin func(*http.Request) bool, log *applogger.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &Hub{
		upgrader:     websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096, CheckOrigin: checkOrigin},
		pingInterval: pingInterval,
		bufferSize:   bufferSize,
		log:          log,
		subs:         make(map[*subscriber]struct{}),
	}
}

// ServeWS upgrades the request and keeps the subscription open until the
// peer disconnects or the hub closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	s := &subscriber{conn: conn, send: make(chan []byte, h.bufferSize)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.log.Info("alerts.subscribe", applogger.String("remote", r.RemoteAddr), applogger.Int("subscribers", n))

	go h.writeLoop(s)
	h.readLoop(s)
	return nil
}

// Broadcast implements repository.AlertSink.
func (h *Hub) Broadcast(v models.PriceVerdict) {
	b, err := json.Marshal(Frame{Type: frameType, Data: v})
	if err != nil {
		h.log.Error("alerts.marshal error", applogger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.send <- b:
		default:
			h.log.Warn("alerts.drop slow subscriber frame", applogger.String("remote", s.conn.RemoteAddr().String()))
		}
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber; later subscriptions are refused.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.send)
	}
	return nil
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
	h.mu.Unlock()
}

// readLoop only drains control frames; subscribers never send data.
func (h *Hub) readLoop(s *subscriber) {
	defer h.remove(s)
	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case b, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
