package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/hxlane/ticketforge/internal/auth/rbac"
	jwt "github.com/hxlane/ticketforge/internal/auth/token"
	"github.com/hxlane/ticketforge/internal/cache"
	"github.com/hxlane/ticketforge/internal/events"
	"github.com/hxlane/ticketforge/internal/forms"
	"github.com/hxlane/ticketforge/internal/infra/persistence/gorm/support"
	obj "github.com/hxlane/ticketforge/internal/objstore"
)

// parseUint converts a decimal string id to uint (0 if invalid).
func parseUint(s string) uint {
	if v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err == nil {
		return uint(v)
	}
	return 0
}

func (s *Server) addSupportRoutes(r *gin.Engine) {
	// Public: the form schema the wizard renders. Cached per slug.
	r.GET("/api/support/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		if b, hit := s.cache.Get(c.Request.Context(), cache.BucketCategory(slug)); hit {
			c.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
		cat, _, err := s.repo.GetCategory(c.Request.Context(), slug)
		if err != nil {
			s.respondError(c, http.StatusNotFound, "not_found", "category not found")
			return
		}
		body, err := jsonAPI.Marshal(cat)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "encode failed")
			return
		}
		s.cache.Set(c.Request.Context(), cache.BucketCategory(slug), body, categoryCacheTTL)
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	})

	// Submission: all steps validated at once, answers stored under
	// "<key>--<type>" so the viewer can pick display logic without the
	// schema surviving.
	r.POST("/api/support", func(c *gin.Context) {
		id, ok := s.auth(c.Request)
		if !ok {
			// the form UI prompts login and retries with the draft kept
			s.respondError(c, http.StatusUnauthorized, "login_required", "login to submit a ticket")
			return
		}
		var in struct {
			Category string         `json:"category"`
			Values   map[string]any `json:"values"`
		}
		if err := c.BindJSON(&in); err != nil || strings.TrimSpace(in.Category) == "" {
			s.respondError(c, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
		cat, catID, err := s.repo.GetCategory(c.Request.Context(), in.Category)
		if err != nil {
			s.respondError(c, http.StatusNotFound, "not_found", "category not found")
			return
		}
		if errs := forms.Compile(cat).Validate(in.Values); len(errs) > 0 {
			if s.metrics != nil {
				s.metrics.ValidationFailed(c.Request.Context(), cat.Slug)
			}
			s.validationError(c, errs)
			return
		}
		content := forms.EncodeContent(cat, in.Values)
		t, err := s.repo.CreateTicket(c.Request.Context(), id.UserID, catID, cat.Slug, content)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "create failed")
			return
		}
		if s.metrics != nil {
			s.metrics.Created(c.Request.Context(), cat.Slug)
		}
		s.auditLog("support.ticket_create", id.Username, strconv.FormatUint(uint64(t.ID), 10),
			map[string]string{"ip": c.ClientIP(), "category": cat.Slug})
		s.events.EmitAsync(events.TicketCreated, map[string]any{
			"ticket_id": t.ID, "category": cat.Slug, "user_id": id.UserID,
		})
		s.JSON(c, http.StatusCreated, gin.H{"id": t.ID})
	})

	// Own tickets for players; everything for support staff.
	r.GET("/api/tickets", func(c *gin.Context) {
		id, ok := s.require(c)
		if !ok {
			return
		}
		userID := id.UserID
		if s.can(id, rbac.PermTicketsRead) || s.can(id, rbac.PermTicketsManage) {
			userID = 0
		}
		status := strings.TrimSpace(c.Query("status"))
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
		if page <= 0 {
			page = 1
		}
		if size <= 0 || size > 200 {
			size = 20
		}
		arr, total, err := s.repo.ListTickets(c.Request.Context(), userID, status, size, (page-1)*size)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "list failed")
			return
		}
		out := make([]gin.H, 0, len(arr))
		for _, t := range arr {
			out = append(out, gin.H{
				"id": t.ID, "category": t.CategorySlug, "status": t.Status,
				"user_id": t.UserID, "created_at": t.CreatedAt, "updated_at": t.UpdatedAt,
			})
		}
		s.JSON(c, http.StatusOK, gin.H{"tickets": out, "total": total, "page": page, "size": size})
	})

	r.GET("/api/tickets/:id", func(c *gin.Context) {
		_, t, ok := s.loadTicket(c)
		if !ok {
			return
		}
		content, err := t.ContentMap()
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "decode failed")
			return
		}
		answers := forms.RenderAnswers(c.Request.Context(), content, s.serverResolver(), s.players)
		msgs, err := s.repo.ListMessages(c.Request.Context(), t.ID)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "messages failed")
			return
		}
		s.JSON(c, http.StatusOK, gin.H{
			"id":         t.ID,
			"category":   t.CategorySlug,
			"status":     t.Status,
			"user_id":    t.UserID,
			"created_at": t.CreatedAt,
			"answers":    answers,
			"messages":   msgs,
		})
	})

	r.POST("/api/tickets/:id/messages", func(c *gin.Context) {
		id, t, ok := s.loadTicket(c)
		if !ok {
			return
		}
		var in struct {
			Content     string   `json:"content"`
			Attachments []string `json:"attachments"`
		}
		if err := c.BindJSON(&in); err != nil || strings.TrimSpace(in.Content) == "" {
			s.respondError(c, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
		m, err := s.repo.AppendMessage(c.Request.Context(), t.ID, id.UserID, in.Content, in.Attachments)
		if err != nil {
			if errors.Is(err, support.ErrTicketClosed) {
				s.respondError(c, http.StatusConflict, "conflict", "ticket is closed")
				return
			}
			s.respondError(c, http.StatusInternalServerError, "internal_error", "create failed")
			return
		}
		if s.metrics != nil {
			s.metrics.Message(c.Request.Context())
		}
		s.events.EmitAsync(events.TicketMessage, map[string]any{
			"ticket_id": t.ID, "user_id": id.UserID,
		})
		s.JSON(c, http.StatusCreated, gin.H{"id": m.ID})
	})

	// DELETE closes; ticket rows are never removed.
	r.DELETE("/api/tickets/:id", func(c *gin.Context) {
		id, t, ok := s.loadTicket(c)
		if !ok {
			return
		}
		if err := s.repo.CloseTicket(c.Request.Context(), t.ID); err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "close failed")
			return
		}
		if s.metrics != nil {
			s.metrics.Closed(c.Request.Context(), t.CategorySlug)
		}
		s.auditLog("support.ticket_close", id.Username, strconv.FormatUint(uint64(t.ID), 10),
			map[string]string{"ip": c.ClientIP()})
		s.events.EmitAsync(events.TicketClosed, map[string]any{
			"ticket_id": t.ID, "category": t.CategorySlug, "user_id": id.UserID,
		})
		c.Status(http.StatusNoContent)
	})

	r.POST("/api/tickets/:id/attachments", func(c *gin.Context) {
		id, t, ok := s.loadTicket(c)
		if !ok {
			return
		}
		if s.obj == nil {
			s.respondError(c, http.StatusNotImplemented, "not_implemented", "attachment storage not configured")
			return
		}
		fh, err := c.FormFile("file")
		if err != nil {
			s.respondError(c, http.StatusBadRequest, "bad_request", "file field required")
			return
		}
		if fh.Size > 10<<20 {
			s.respondError(c, http.StatusRequestEntityTooLarge, "request_too_large", "attachment exceeds 10MB")
			return
		}
		f, err := fh.Open()
		if err != nil {
			s.respondError(c, http.StatusBadRequest, "bad_request", "open upload failed")
			return
		}
		defer f.Close()
		key := obj.AttachmentKey(t.ID, fh.Filename)
		if err := s.obj.Put(c.Request.Context(), key, f, fh.Header.Get("Content-Type")); err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "store failed")
			return
		}
		s.auditLog("support.attachment_upload", id.Username, key, map[string]string{"ip": c.ClientIP()})
		out := gin.H{"key": key}
		if u, err := s.obj.SignedURL(c.Request.Context(), key, 0); err == nil {
			out["url"] = u
		}
		s.JSON(c, http.StatusCreated, out)
	})

	// Typeahead for the players/players-grid widgets.
	r.GET("/api/tickets/reportable", func(c *gin.Context) {
		if _, ok := s.require(c); !ok {
			return
		}
		q := strings.TrimSpace(c.Query("search"))
		if q == "" {
			q = strings.TrimSpace(c.Query("q"))
		}
		if q == "" {
			s.JSON(c, http.StatusOK, gin.H{"players": []forms.PlayerProfile{}})
			return
		}
		if s.players == nil {
			s.JSON(c, http.StatusOK, gin.H{"players": []forms.PlayerProfile{}})
			return
		}
		players, err := s.players.Search(c.Request.Context(), q)
		if err != nil {
			// degraded lookup is not an error page, the widget shows no hits
			s.JSON(c, http.StatusOK, gin.H{"players": []forms.PlayerProfile{}})
			return
		}
		s.JSON(c, http.StatusOK, gin.H{"players": players})
	})

	// Server list for the server/server-grid widgets, grouped by game.
	r.GET("/api/servers", func(c *gin.Context) {
		if s.servers == nil {
			s.JSON(c, http.StatusOK, gin.H{"groups": []any{}})
			return
		}
		s.JSON(c, http.StatusOK, gin.H{"groups": s.servers.Grouped()})
	})
}

// loadTicket fetches the ticket and enforces owner-or-staff access.
func (s *Server) loadTicket(c *gin.Context) (jwt.Identity, *support.TicketRecord, bool) {
	id, authed := s.require(c)
	if !authed {
		return jwt.Identity{}, nil, false
	}
	t, err := s.repo.GetTicket(c.Request.Context(), parseUint(c.Param("id")))
	if err != nil {
		s.respondError(c, http.StatusNotFound, "not_found", "ticket not found")
		return jwt.Identity{}, nil, false
	}
	if t.UserID != id.UserID && !s.can(id, rbac.PermTicketsRead) && !s.can(id, rbac.PermTicketsManage) {
		s.respondError(c, http.StatusForbidden, "forbidden", "forbidden")
		return jwt.Identity{}, nil, false
	}
	return id, t, true
}

func (s *Server) serverResolver() forms.ServerResolver {
	if s.servers == nil {
		return nil
	}
	return s.servers
}
