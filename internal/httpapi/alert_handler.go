package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vigilhq/vigil/internal/domain/alert"
	"github.com/vigilhq/vigil/internal/services/publisher"
)

func (rt *Router) handlePublishAlert(c *gin.Context) {
	var candidate alert.Candidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}

	id, _ := identity(c)
	a, err := rt.pub.Publish(c.Request.Context(), candidate, id.AsUser())
	if err != nil {
		if errors.Is(err, publisher.ErrUnauthorized) {
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "unauthorized"})
			return
		}
		rt.log.Error("publish alert", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to store alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "alert": a})
}

// handleListAlerts returns the whole log by default; ?before=<id>&limit=<n>
// pages backwards through it with a keyset cursor.
func (rt *Router) handleListAlerts(c *gin.Context) {
	var (
		alerts []*alert.Alert
		err    error
	)
	if before, ok := queryInt64(c, "before"); ok {
		limit, _ := queryInt64(c, "limit")
		alerts, err = rt.pub.HistoryBefore(c.Request.Context(), before, int(limit))
	} else {
		alerts, err = rt.pub.History(c.Request.Context())
	}
	if err != nil {
		rt.log.Error("list alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to load alerts"})
		return
	}
	if alerts == nil {
		alerts = []*alert.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "alerts": alerts})
}

func queryInt64(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

type saveTokenReq struct {
	Token string `json:"token" binding:"required"`
}

func (rt *Router) handleSaveToken(c *gin.Context) {
	var req saveTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	id, _ := identity(c)
	if err := rt.tokens.Register(c.Request.Context(), id.UserID, req.Token); err != nil {
		rt.log.Error("save push token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	rt.log.Info("push token saved", zap.String("username", id.Username))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
