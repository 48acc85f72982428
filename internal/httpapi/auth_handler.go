package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authsvc "github.com/vigilhq/vigil/internal/services/auth"
)

type credentialsReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (rt *Router) handleRegister(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	u, access, refresh, err := rt.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, authsvc.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			rt.log.Error("register", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}
	rt.setAuthCookies(c, access, refresh)
	c.JSON(http.StatusOK, gin.H{"ok": true, "role": u.Role})
}

func (rt *Router) handleLogin(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing credentials"})
		return
	}
	u, access, refresh, err := rt.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	rt.setAuthCookies(c, access, refresh)
	c.JSON(http.StatusOK, gin.H{"ok": true, "role": u.Role})
}

func (rt *Router) handleRefresh(c *gin.Context) {
	raw, _ := c.Cookie(rt.cookies.RefreshName)
	access, refresh, err := rt.auth.Refresh(c.Request.Context(), raw)
	if err != nil {
		rt.clearAuthCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}
	rt.setAuthCookies(c, access, refresh)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (rt *Router) handleLogout(c *gin.Context) {
	raw, _ := c.Cookie(rt.cookies.RefreshName)
	_ = rt.auth.Logout(c.Request.Context(), raw)
	rt.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (rt *Router) handleMe(c *gin.Context) {
	id, _ := identity(c)
	u, err := rt.auth.GetUser(c.Request.Context(), id.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (rt *Router) handleChangePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields required"})
		return
	}
	id, _ := identity(c)
	err := rt.auth.ChangePassword(c.Request.Context(), id.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "current password incorrect"})
		default:
			rt.log.Error("change password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (rt *Router) handleDeleteAccount(c *gin.Context) {
	id, _ := identity(c)
	if err := rt.auth.DeleteAccount(c.Request.Context(), id.UserID); err != nil {
		rt.log.Error("delete account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	rt.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (rt *Router) setAuthCookies(c *gin.Context, access, refresh string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(rt.cookies.AccessName, access, int(rt.auth.AccessTTL().Seconds()), "/", rt.cookies.Domain, rt.cookies.Secure, true)
	c.SetCookie(rt.cookies.RefreshName, refresh, int(rt.auth.RefreshTTL().Seconds()), "/api/auth", rt.cookies.Domain, rt.cookies.Secure, true)
}

func (rt *Router) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(rt.cookies.AccessName, "", -1, "/", rt.cookies.Domain, rt.cookies.Secure, true)
	c.SetCookie(rt.cookies.RefreshName, "", -1, "/api/auth", rt.cookies.Domain, rt.cookies.Secure, true)
}
