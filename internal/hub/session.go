package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vigilhq/vigil/internal/domain/alert"
)

// Conn is the slice of *websocket.Conn the hub actually uses; tests plug in
// an in-memory implementation.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Session struct {
	hub  *Hub
	conn Conn
	send chan []byte

	mu      sync.Mutex
	ready   bool           // history event queued; live alerts flow directly
	backlog []*alert.Alert // broadcasts that raced the snapshot read
	closed  bool
}

func newSession(h *Hub, conn Conn) *Session {
	return &Session{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SessionBuffer),
	}
}

// deliver hands one broadcast to this session. Until the history snapshot is
// queued the alert is parked on the backlog; deliverHistory decides which
// parked alerts the snapshot already covered.
func (s *Session) deliver(a *alert.Alert, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if !s.ready {
		s.backlog = append(s.backlog, a)
		return
	}
	s.queueLocked(payload)
}

// deliverHistory queues the snapshot (newest first) and flushes any backlog
// entries the snapshot did not already contain, in publish order.
func (s *Session) deliverHistory(snapshot []*alert.Alert) {
	payload, err := json.Marshal(historyEvent{Type: "history", Alerts: snapshot})
	if err != nil {
		s.hub.log.Error("marshal history event", zap.Error(err))
		payload = []byte(`{"type":"history","alerts":[]}`)
	}

	var head int64
	if len(snapshot) > 0 {
		head = snapshot[0].ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queueLocked(payload)
	for _, a := range s.backlog {
		if a.ID <= head {
			continue
		}
		live, err := json.Marshal(alertEvent{Type: "alert", Alert: a})
		if err != nil {
			continue
		}
		s.queueLocked(live)
	}
	s.backlog = nil
	s.ready = true
}

func (s *Session) queueJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queueLocked(payload)
}

// queueLocked never blocks: a full queue means the client stopped reading,
// and the session is closed rather than letting it wedge the broadcaster.
func (s *Session) queueLocked(payload []byte) {
	select {
	case s.send <- payload:
	default:
		s.closeLocked()
		go s.hub.forget(s)
	}
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// writePump is the only goroutine that writes to the conn. It exits when the
// send queue is closed or a write fails, closing the conn either way.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := s.write(websocket.TextMessage, payload); err != nil {
				s.hub.Drop(s)
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.hub.Drop(s)
				return
			}
		}
	}
}

func (s *Session) write(messageType int, payload []byte) error {
	if wc, ok := s.conn.(*websocket.Conn); ok {
		_ = wc.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
	}
	return s.conn.WriteMessage(messageType, payload)
}
