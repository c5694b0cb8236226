package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	gin "github.com/gin-gonic/gin"
	"gorm.io/gorm"

	auditchain "github.com/hxlane/ticketforge/internal/audit/chain"
	"github.com/hxlane/ticketforge/internal/auth/rbac"
	jwt "github.com/hxlane/ticketforge/internal/auth/token"
	"github.com/hxlane/ticketforge/internal/cache"
	"github.com/hxlane/ticketforge/internal/directory"
	"github.com/hxlane/ticketforge/internal/events"
	"github.com/hxlane/ticketforge/internal/forms"
	"github.com/hxlane/ticketforge/internal/infra/persistence/gorm/support"
	usersgorm "github.com/hxlane/ticketforge/internal/infra/persistence/gorm/users"
	obj "github.com/hxlane/ticketforge/internal/objstore"
	"github.com/hxlane/ticketforge/internal/telemetry"
)

// PlayerLookup resolves and searches player profiles.
type PlayerLookup interface {
	forms.PlayerResolver
	Search(ctx context.Context, q string) ([]forms.PlayerProfile, error)
}

// Server wires the ticket-form engine behind the HTTP API.
type Server struct {
	db       *gorm.DB
	repo     *support.Repo
	users    *usersgorm.Repo
	audit    *auditchain.Writer
	policy   rbac.Policy
	jwtMgr   *jwt.Manager
	cache    cache.Store
	events   *events.Producer
	servers  *directory.Directory
	players  PlayerLookup
	obj      obj.Store
	metrics  *telemetry.TicketMetrics
	tokenTTL time.Duration

	httpSrv *http.Server

	// login rate limiting (in-memory): key = ip|username
	loginAttempts map[string][]time.Time
	loginMu       sync.Mutex
}

// Options collects the collaborators NewServer needs. Nil cache, events,
// players, obj and metrics degrade gracefully.
type Options struct {
	DB       *gorm.DB
	Audit    *auditchain.Writer
	Policy   rbac.Policy
	JWT      *jwt.Manager
	Cache    cache.Store
	Events   *events.Producer
	Servers  *directory.Directory
	Players  PlayerLookup
	ObjStore obj.Store
	Metrics  *telemetry.TicketMetrics
	TokenTTL time.Duration
}

func NewServer(o Options) (*Server, error) {
	if o.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if o.JWT == nil {
		return nil, fmt.Errorf("jwt manager is required")
	}
	s := &Server{
		db:            o.DB,
		repo:          support.NewRepo(o.DB),
		users:         usersgorm.NewRepo(o.DB),
		audit:         o.Audit,
		policy:        o.Policy,
		jwtMgr:        o.JWT,
		cache:         o.Cache,
		events:        o.Events,
		servers:       o.Servers,
		players:       o.Players,
		obj:           o.ObjStore,
		metrics:       o.Metrics,
		tokenTTL:      o.TokenTTL,
		loginAttempts: map[string][]time.Time{},
	}
	if s.cache == nil {
		s.cache = cache.Noop()
	}
	if s.events == nil {
		s.events = events.NewProducer(nil, "")
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = 24 * time.Hour
	}
	return s, nil
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.ginReqID(), s.ginLogger())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/readyz", func(c *gin.Context) {
		sqlDB, err := s.db.DB()
		if err != nil || sqlDB.Ping() != nil {
			s.respondError(c, http.StatusServiceUnavailable, "unavailable", "database not ready")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	s.addAuthRoutes(r)
	s.addAdminRoutes(r)
	s.addSupportRoutes(r)
	return r
}

// Run serves until ctx is canceled, then drains with a 10s grace period.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.Router()}
	errc := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shCtx)
}

// auth extracts the identity from the Authorization header.
func (s *Server) auth(r *http.Request) (jwt.Identity, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		// SSE and download links pass the token as a query param
		h = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	h = strings.TrimPrefix(h, "Bearer ")
	if h == "" {
		return jwt.Identity{}, false
	}
	id, err := s.jwtMgr.Verify(h)
	if err != nil {
		return jwt.Identity{}, false
	}
	return id, true
}

// can checks permission for the user or any of their roles.
func (s *Server) can(id jwt.Identity, perm string) bool {
	if s.policy == nil {
		return true
	}
	if s.policy.Can("user:"+id.Username, perm) {
		return true
	}
	for _, role := range id.Roles {
		if s.policy.Can("role:"+role, perm) {
			return true
		}
	}
	slog.Debug("rbac denied", "user", id.Username, "roles", id.Roles, "perm", perm)
	return false
}

// require checks that the request is authenticated and holds any of the
// permissions. Writes the error response itself on failure.
func (s *Server) require(c *gin.Context, anyOf ...string) (jwt.Identity, bool) {
	id, ok := s.auth(c.Request)
	if !ok {
		s.respondError(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return jwt.Identity{}, false
	}
	if len(anyOf) == 0 {
		return id, true
	}
	for _, p := range anyOf {
		if s.can(id, p) {
			return id, true
		}
	}
	s.respondError(c, http.StatusForbidden, "forbidden", "forbidden")
	return jwt.Identity{}, false
}

// respondError sends a unified JSON error body.
func (s *Server) respondError(c *gin.Context, status int, code, message string) {
	type errBody struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	}
	rid, _ := c.Get("reqid")
	c.JSON(status, errBody{Code: code, Message: message, RequestID: fmt.Sprint(rid)})
}

// validationError sends the per-field error map the form UI renders inline.
func (s *Server) validationError(c *gin.Context, errs forms.FieldErrors) {
	rid, _ := c.Get("reqid")
	s.JSON(c, http.StatusUnprocessableEntity, gin.H{
		"code":       "validation_failed",
		"errors":     errs,
		"request_id": fmt.Sprint(rid),
	})
}

// allowLogin rate limits login attempts per ip|username: 10 per 5 minutes.
func (s *Server) allowLogin(ip, username string) bool {
	key := strings.TrimSpace(ip) + "|" + strings.TrimSpace(username)
	now := time.Now()
	window := now.Add(-5 * time.Minute)
	s.loginMu.Lock()
	defer s.loginMu.Unlock()
	arr := s.loginAttempts[key]
	kept := arr[:0]
	for _, t := range arr {
		if t.After(window) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= 10 {
		s.loginAttempts[key] = kept
		return false
	}
	s.loginAttempts[key] = append(kept, now)
	return true
}

// ginReqID injects/propagates an X-Request-ID for traceability.
func (s *Server) ginReqID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.Request.Header.Get("X-Request-ID"))
		if rid == "" {
			b := make([]byte, 16)
			if _, err := rand.Read(b); err == nil {
				rid = hex.EncodeToString(b)
			} else {
				rid = fmt.Sprintf("%d", time.Now().UnixNano())
			}
		}
		c.Set("reqid", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func (s *Server) ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start)
		id, _ := s.auth(c.Request)
		st := c.Writer.Status()
		lvl := slog.LevelInfo
		if st >= 500 {
			lvl = slog.LevelError
		} else if st >= 400 {
			lvl = slog.LevelWarn
		}
		rid, _ := c.Get("reqid")
		slog.Log(c, lvl, "http",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", st,
			"bytes", c.Writer.Size(),
			"remote", c.ClientIP(),
			"user", id.Username,
			"reqid", rid,
			"dur_ms", dur.Milliseconds(),
		)
	}
}

func (s *Server) auditLog(kind, actor, target string, meta map[string]string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(kind, actor, target, meta); err != nil {
		slog.Warn("audit write failed", "kind", kind, "error", err)
	}
}
