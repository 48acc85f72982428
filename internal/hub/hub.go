// Package hub owns the set of live client sessions and fans published alerts
// out to them. Each session drains its own buffered queue on a dedicated
// writer goroutine, so a slow or dead client can never stall a broadcast to
// the others; a session whose queue overflows is dropped and has to
// reconnect, at which point the history snapshot catches it up.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vigilhq/vigil/internal/domain/alert"
)

var (
	mSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vigil_ws_sessions",
		Help: "Currently connected websocket sessions.",
	})
	mBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_ws_broadcasts_total",
		Help: "Alerts fanned out to live sessions.",
	})
	mDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_ws_sessions_dropped_total",
		Help: "Sessions dropped for falling behind or failing writes.",
	})
)

type Config struct {
	SessionBuffer int
	WriteTimeout  time.Duration
	PingInterval  time.Duration
}

func (c Config) withDefaults() Config {
	if c.SessionBuffer <= 0 {
		c.SessionBuffer = 32
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	return c
}

type Hub struct {
	store alert.Store
	cfg   Config
	log   *zap.Logger

	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

func New(store alert.Store, cfg Config, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		store:    store,
		cfg:      cfg.withDefaults(),
		log:      log.With(zap.String("component", "hub")),
		sessions: make(map[*Session]struct{}),
	}
}

// Connect registers the conn, starts its writer, and queues the connection
// ack plus the history snapshot before any live alert can reach the session.
// Broadcasts racing the snapshot read are buffered on the session and
// reconciled against the snapshot head, so the client sees every alert
// exactly once and in publish order.
func (h *Hub) Connect(ctx context.Context, conn Conn) *Session {
	s := newSession(h, conn)

	h.mu.Lock()
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()
	mSessions.Set(float64(n))

	go s.writePump()

	s.queueJSON(connectedEvent{Type: "connected", Timestamp: time.Now().UTC()})

	snapshot, err := h.store.List(ctx)
	if err != nil {
		// Degraded: the client still gets a (stale-empty) history event and
		// will receive live alerts; it can refetch over HTTP.
		h.log.Error("history snapshot failed", zap.Error(err))
		snapshot = nil
	}
	s.deliverHistory(snapshot)

	h.log.Debug("session connected", zap.Int("sessions", n), zap.Int("history", len(snapshot)))
	return s
}

// Broadcast fans one freshly appended alert out to every session connected
// right now. Sessions connecting afterwards see it in their snapshot instead.
func (h *Hub) Broadcast(a *alert.Alert) {
	payload, err := json.Marshal(alertEvent{Type: "alert", Alert: a})
	if err != nil {
		h.log.Error("marshal alert event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		s.deliver(a, payload)
	}
	mBroadcasts.Inc()
}

// Drop disconnects one session; safe to call more than once.
func (h *Hub) Drop(s *Session) {
	h.forget(s)
	s.mu.Lock()
	s.closeLocked()
	s.mu.Unlock()
}

func (h *Hub) forget(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		mDropped.Inc()
	}
	n := len(h.sessions)
	h.mu.Unlock()
	mSessions.Set(float64(n))
}

// Shutdown closes every live session.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[*Session]struct{})
	h.mu.Unlock()
	mSessions.Set(0)

	for _, s := range sessions {
		s.mu.Lock()
		s.closeLocked()
		s.mu.Unlock()
	}
}

// PongWait is how long a session's reader may go silent before giving up on
// the peer. The writer pings every PingInterval, so a live client answers
// well within two intervals.
func (h *Hub) PongWait() time.Duration {
	return 2 * h.cfg.PingInterval
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

type connectedEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type historyEvent struct {
	Type   string         `json:"type"`
	Alerts []*alert.Alert `json:"alerts"`
}

type alertEvent struct {
	Type  string       `json:"type"`
	Alert *alert.Alert `json:"alert"`
}
