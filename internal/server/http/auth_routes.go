package httpserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	jwt "github.com/hxlane/ticketforge/internal/auth/token"
)

func (s *Server) addAuthRoutes(r *gin.Engine) {
	r.POST("/api/login", func(c *gin.Context) {
		var in struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.BindJSON(&in); err != nil || strings.TrimSpace(in.Username) == "" {
			s.respondError(c, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
		if !s.allowLogin(c.ClientIP(), in.Username) {
			s.respondError(c, http.StatusTooManyRequests, "rate_limited", "too many login attempts")
			return
		}
		u, err := s.users.Verify(c.Request.Context(), in.Username, in.Password)
		if err != nil {
			s.auditLog("auth.login_failed", in.Username, "", map[string]string{"ip": c.ClientIP()})
			s.respondError(c, http.StatusUnauthorized, "unauthorized", "invalid credentials")
			return
		}
		roles, err := s.users.Roles(c.Request.Context(), u.ID)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "roles lookup failed")
			return
		}
		tok, err := s.jwtMgr.Sign(jwt.Identity{Username: u.Username, UserID: u.ID, Roles: roles}, s.tokenTTL)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "token sign failed")
			return
		}
		s.auditLog("auth.login", u.Username, "", map[string]string{"ip": c.ClientIP()})
		s.JSON(c, http.StatusOK, gin.H{
			"token":        tok,
			"username":     u.Username,
			"display_name": u.DisplayName,
			"roles":        roles,
		})
	})

	r.GET("/api/me", func(c *gin.Context) {
		id, ok := s.require(c)
		if !ok {
			return
		}
		s.JSON(c, http.StatusOK, gin.H{
			"username": id.Username,
			"user_id":  id.UserID,
			"roles":    id.Roles,
		})
	})
}
