package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/hxlane/ticketforge/internal/auth/rbac"
	jwt "github.com/hxlane/ticketforge/internal/auth/token"
	"github.com/hxlane/ticketforge/internal/infra/persistence/gorm/support"
	usersgorm "github.com/hxlane/ticketforge/internal/infra/persistence/gorm/users"
)

func init() { gin.SetMode(gin.TestMode) }

type testEnv struct {
	srv     *Server
	router  *gin.Engine
	adminTk string
	userTk  string
	userID  uint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := support.AutoMigrate(db); err != nil {
		t.Fatalf("migrate support: %v", err)
	}
	if err := usersgorm.AutoMigrate(db); err != nil {
		t.Fatalf("migrate users: %v", err)
	}
	ctx := context.Background()
	users := usersgorm.NewRepo(db)
	admin, err := users.Create(ctx, "admin", "Administrator", "secret")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if err := users.AssignRole(ctx, admin.ID, "admin"); err != nil {
		t.Fatalf("assign role: %v", err)
	}
	player, err := users.Create(ctx, "alice", "Alice", "hunter2")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	mgr := jwt.NewManager("test-secret")
	srv, err := NewServer(Options{
		DB:     db,
		JWT:    mgr,
		Policy: rbac.DefaultPolicy(),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	adminTk, _ := mgr.Sign(jwt.Identity{Username: "admin", UserID: admin.ID, Roles: []string{"admin"}}, time.Hour)
	userTk, _ := mgr.Sign(jwt.Identity{Username: "alice", UserID: player.ID, Roles: nil}, time.Hour)
	return &testEnv{srv: srv, router: srv.Router(), adminTk: adminTk, userTk: userTk, userID: player.ID}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return m
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	if w := e.do(t, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("readyz: %d", w.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/login", "", map[string]any{"username": "alice", "password": "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	tok, _ := decode(t, w)["token"].(string)
	if tok == "" {
		t.Fatal("no token in response")
	}
	w = e.do(t, http.MethodGet, "/api/me", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d", w.Code)
	}
	if got := decode(t, w)["username"]; got != "alice" {
		t.Fatalf("me username: %v", got)
	}

	w = e.do(t, http.MethodPost, "/api/login", "", map[string]any{"username": "alice", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
}
