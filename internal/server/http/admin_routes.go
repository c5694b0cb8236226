package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"github.com/hxlane/ticketforge/internal/auth/rbac"
	"github.com/hxlane/ticketforge/internal/cache"
	"github.com/hxlane/ticketforge/internal/forms"
	"github.com/hxlane/ticketforge/internal/infra/persistence/gorm/support"
	"github.com/hxlane/ticketforge/internal/validation"
)

const categoryCacheTTL = 10 * time.Minute

// addAdminRoutes registers the ticket-settings surface: category schema CRUD
// plus step/field reordering. Every mutation drops the cached buckets so the
// public form endpoint refetches.
func (s *Server) addAdminRoutes(r *gin.Engine) {
	r.GET("/api/admin/ticket-settings", func(c *gin.Context) {
		if _, ok := s.require(c, rbac.PermSettingsManage); !ok {
			return
		}
		if b, hit := s.cache.Get(c.Request.Context(), cache.BucketAdminCategories); hit {
			c.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
		cats, err := s.repo.ListCategories(c.Request.Context())
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "list failed")
			return
		}
		body, err := jsonAPI.Marshal(gin.H{"categories": cats})
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "encode failed")
			return
		}
		s.cache.Set(c.Request.Context(), cache.BucketAdminCategories, body, categoryCacheTTL)
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	})

	r.GET("/api/admin/ticket-settings/:slug", func(c *gin.Context) {
		if _, ok := s.require(c, rbac.PermSettingsManage); !ok {
			return
		}
		cat, _, err := s.repo.GetCategory(c.Request.Context(), c.Param("slug"))
		if err != nil {
			s.respondError(c, http.StatusNotFound, "not_found", "category not found")
			return
		}
		s.JSON(c, http.StatusOK, cat)
	})

	r.POST("/api/admin/ticket-settings", func(c *gin.Context) {
		id, ok := s.require(c, rbac.PermSettingsManage)
		if !ok {
			return
		}
		cat, done := s.bindCategory(c)
		if done {
			return
		}
		if cat.Slug == "" {
			cat.Slug = forms.Slugify(cat.Name)
		}
		if errs := cat.Validate(); len(errs) > 0 {
			s.validationError(c, errs)
			return
		}
		if err := s.repo.CreateCategory(c.Request.Context(), cat); err != nil {
			if errors.Is(err, support.ErrSlugTaken) {
				s.respondError(c, http.StatusConflict, "conflict", "slug already in use")
				return
			}
			s.respondError(c, http.StatusInternalServerError, "internal_error", "create failed")
			return
		}
		s.invalidateCategory(c, cat.Slug)
		s.auditLog("settings.category_create", id.Username, cat.Slug, map[string]string{"ip": c.ClientIP(), "name": cat.Name})
		s.JSON(c, http.StatusCreated, cat)
	})

	r.PUT("/api/admin/ticket-settings/:slug", func(c *gin.Context) {
		id, ok := s.require(c, rbac.PermSettingsManage)
		if !ok {
			return
		}
		slug := c.Param("slug")
		cat, done := s.bindCategory(c)
		if done {
			return
		}
		// slug is immutable; the path wins over the body
		cat.Slug = slug
		if errs := cat.Validate(); len(errs) > 0 {
			s.validationError(c, errs)
			return
		}
		if err := s.repo.ReplaceCategory(c.Request.Context(), slug, cat); err != nil {
			if errors.Is(err, support.ErrNotFound) {
				s.respondError(c, http.StatusNotFound, "not_found", "category not found")
				return
			}
			s.respondError(c, http.StatusInternalServerError, "internal_error", "update failed")
			return
		}
		s.invalidateCategory(c, slug)
		s.auditLog("settings.category_update", id.Username, slug, map[string]string{"ip": c.ClientIP()})
		s.JSON(c, http.StatusOK, cat)
	})

	r.DELETE("/api/admin/ticket-settings/:slug", func(c *gin.Context) {
		id, ok := s.require(c, rbac.PermSettingsManage)
		if !ok {
			return
		}
		slug := c.Param("slug")
		if err := s.repo.DeleteCategory(c.Request.Context(), slug); err != nil {
			if errors.Is(err, support.ErrNotFound) {
				s.respondError(c, http.StatusNotFound, "not_found", "category not found")
				return
			}
			s.respondError(c, http.StatusInternalServerError, "internal_error", "delete failed")
			return
		}
		s.invalidateCategory(c, slug)
		s.auditLog("settings.category_delete", id.Username, slug, map[string]string{"ip": c.ClientIP()})
		c.Status(http.StatusNoContent)
	})

	r.POST("/api/admin/ticket-settings/:slug/reorder-steps", func(c *gin.Context) {
		id, ok := s.require(c, rbac.PermSettingsManage)
		if !ok {
			return
		}
		var in struct {
			From int `json:"from"`
			To   int `json:"to"`
		}
		if err := c.BindJSON(&in); err != nil {
			s.respondError(c, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
		slug := c.Param("slug")
		cat, _, err := s.repo.GetCategory(c.Request.Context(), slug)
		if err != nil {
			s.respondError(c, http.StatusNotFound, "not_found", "category not found")
			return
		}
		cat.ReorderSteps(in.From, in.To)
		if err := s.repo.ReplaceCategory(c.Request.Context(), slug, cat); err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "update failed")
			return
		}
		s.invalidateCategory(c, slug)
		s.auditLog("settings.reorder_steps", id.Username, slug, map[string]string{"ip": c.ClientIP()})
		s.JSON(c, http.StatusOK, cat)
	})

	r.POST("/api/admin/ticket-settings/:slug/steps/:step/reorder-fields", func(c *gin.Context) {
		id, ok := s.require(c, rbac.PermSettingsManage)
		if !ok {
			return
		}
		var in struct {
			From int `json:"from"`
			To   int `json:"to"`
		}
		if err := c.BindJSON(&in); err != nil {
			s.respondError(c, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
		slug := c.Param("slug")
		cat, _, err := s.repo.GetCategory(c.Request.Context(), slug)
		if err != nil {
			s.respondError(c, http.StatusNotFound, "not_found", "category not found")
			return
		}
		step := int(parseUint(c.Param("step")))
		if step < 0 || step >= len(cat.Steps) {
			s.respondError(c, http.StatusBadRequest, "bad_request", "step out of range")
			return
		}
		cat.Steps[step].ReorderFields(in.From, in.To)
		if err := s.repo.ReplaceCategory(c.Request.Context(), slug, cat); err != nil {
			s.respondError(c, http.StatusInternalServerError, "internal_error", "update failed")
			return
		}
		s.invalidateCategory(c, slug)
		s.auditLog("settings.reorder_fields", id.Username, slug, map[string]string{"ip": c.ClientIP()})
		s.JSON(c, http.StatusOK, cat)
	})

	r.GET("/api/admin/field-types", func(c *gin.Context) {
		if _, ok := s.require(c, rbac.PermSettingsManage); !ok {
			return
		}
		out := make([]gin.H, 0)
		for _, t := range forms.Types() {
			out = append(out, gin.H{"type": t, "widget": forms.WidgetFor(t)})
		}
		s.JSON(c, http.StatusOK, gin.H{"types": out})
	})
}

// bindCategory reads and gates the raw body, then decodes it. The second
// return is true when a response was already written.
func (s *Server) bindCategory(c *gin.Context) (*forms.Category, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "bad_request", "read body failed")
		return nil, true
	}
	if err := validation.CheckCategoryJSON(body); err != nil {
		s.respondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return nil, true
	}
	var cat forms.Category
	if err := jsonAPI.Unmarshal(body, &cat); err != nil {
		s.respondError(c, http.StatusBadRequest, "bad_request", "invalid payload")
		return nil, true
	}
	cat.Name = strings.TrimSpace(cat.Name)
	return &cat, false
}

func (s *Server) invalidateCategory(c *gin.Context, slug string) {
	cache.InvalidateCategory(c.Request.Context(), s.cache, slug)
	if s.metrics != nil {
		s.metrics.CacheInvalidated(c.Request.Context())
	}
}
