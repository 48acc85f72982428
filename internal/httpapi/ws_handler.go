package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth runs before the upgrade; cross-origin browser clients are
	// expected (the dashboard may be served elsewhere).
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS upgrades the connection and parks in a read loop. The hub queues
// the history snapshot on connect; the read loop only exists to notice the
// client going away (and to answer pings client-side).
func (rt *Router) handleWS(c *gin.Context) {
	id, _ := identity(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rt.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	// Without a deadline a half-open peer is only noticed when a write
	// fails; pongs from the hub's pings keep refreshing it.
	wait := rt.hub.PongWait()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	sess := rt.hub.Connect(c.Request.Context(), conn)
	rt.log.Debug("ws connected", zap.String("username", id.Username))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			rt.hub.Drop(sess)
			rt.log.Debug("ws disconnected", zap.String("username", id.Username))
			return
		}
	}
}
