package httpserver

import (
	"net/http"
	"testing"
)

func setupCategory(t *testing.T, e *testEnv) {
	t.Helper()
	if w := e.do(t, http.MethodPost, "/api/admin/ticket-settings", e.adminTk, sampleCategoryBody()); w.Code != http.StatusCreated {
		t.Fatalf("seed category: %d %s", w.Code, w.Body.String())
	}
}

func TestSubmitTicket(t *testing.T) {
	e := newTestEnv(t)
	setupCategory(t, e)

	// anonymous submit gets the login prompt, not a generic 401
	w := e.do(t, http.MethodPost, "/api/support", "", map[string]any{
		"category": "bug_report",
		"values":   map[string]any{"summary": "it crashed hard", "severity": "high"},
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anon submit: %d", w.Code)
	}
	if decode(t, w)["code"] != "login_required" {
		t.Fatalf("anon submit code: %s", w.Body.String())
	}

	// validation failure reports per-field errors
	w = e.do(t, http.MethodPost, "/api/support", e.userTk, map[string]any{
		"category": "bug_report",
		"values":   map[string]any{"summary": "it crashed hard", "severity": "critical"},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad enum: %d %s", w.Code, w.Body.String())
	}
	errs, _ := decode(t, w)["errors"].(map[string]any)
	if _, ok := errs["severity"]; !ok {
		t.Fatalf("expected severity error, got %v", errs)
	}

	w = e.do(t, http.MethodPost, "/api/support", e.userTk, map[string]any{
		"category": "bug_report",
		"values":   map[string]any{"summary": "it crashed hard", "severity": "high"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/support", e.userTk, map[string]any{
		"category": "no_such_form",
		"values":   map[string]any{},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown category: %d", w.Code)
	}
}

func TestTicketViewAndMessages(t *testing.T) {
	e := newTestEnv(t)
	setupCategory(t, e)

	w := e.do(t, http.MethodPost, "/api/support", e.userTk, map[string]any{
		"category": "bug_report",
		"values":   map[string]any{"summary": "login is broken", "severity": "low"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/api/tickets/1", e.userTk, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("view: %d %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	answers, _ := m["answers"].([]any)
	if len(answers) != 2 {
		t.Fatalf("answers: %v", answers)
	}
	// sorted by key: severity then summary; labels recovered from keys
	first, _ := answers[0].(map[string]any)
	if first["label"] != "Severity" || first["display"] != "low" {
		t.Fatalf("first answer: %v", first)
	}

	w = e.do(t, http.MethodPost, "/api/tickets/1/messages", e.userTk, map[string]any{"content": "any update?"})
	if w.Code != http.StatusCreated {
		t.Fatalf("message: %d %s", w.Code, w.Body.String())
	}

	// close, then further messages conflict
	if w := e.do(t, http.MethodDelete, "/api/tickets/1", e.userTk, nil); w.Code != http.StatusNoContent {
		t.Fatalf("close: %d", w.Code)
	}
	w = e.do(t, http.MethodPost, "/api/tickets/1/messages", e.userTk, map[string]any{"content": "reopening?"})
	if w.Code != http.StatusConflict {
		t.Fatalf("message after close: %d", w.Code)
	}

	// stored answers survive the category being deleted
	if w := e.do(t, http.MethodDelete, "/api/admin/ticket-settings/bug_report", e.adminTk, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete category: %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/api/tickets/1", e.userTk, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("view after category delete: %d", w.Code)
	}
	if got, _ := decode(t, w)["answers"].([]any); len(got) != 2 {
		t.Fatalf("answers lost with category: %v", got)
	}
}

func TestTicketListScoping(t *testing.T) {
	e := newTestEnv(t)
	setupCategory(t, e)
	w := e.do(t, http.MethodPost, "/api/support", e.userTk, map[string]any{
		"category": "bug_report",
		"values":   map[string]any{"summary": "player ticket", "severity": "low"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d", w.Code)
	}

	// players see their own tickets only; admins see everything
	w = e.do(t, http.MethodGet, "/api/tickets", e.userTk, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	if total := decode(t, w)["total"]; total != float64(1) {
		t.Fatalf("player total: %v", total)
	}
	w = e.do(t, http.MethodGet, "/api/tickets", e.adminTk, nil)
	if total := decode(t, w)["total"]; total != float64(1) {
		t.Fatalf("admin total: %v", total)
	}

	// a ticket not owned by the caller is forbidden without staff perms
	w = e.do(t, http.MethodGet, "/api/tickets/1", e.adminTk, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("staff view: %d", w.Code)
	}
}

func TestReportableSearchWithoutBackend(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/tickets/reportable?q=alice", e.userTk, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reportable: %d", w.Code)
	}
	players, _ := decode(t, w)["players"].([]any)
	if len(players) != 0 {
		t.Fatalf("players without backend: %v", players)
	}
}

func TestServersWithoutDirectory(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/servers", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("servers: %d", w.Code)
	}
}
