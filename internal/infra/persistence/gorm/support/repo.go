package support

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hxlane/ticketforge/internal/forms"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrSlugTaken    = errors.New("slug already taken")
	ErrTicketClosed = errors.New("ticket is closed")
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// ---- categories ----

// CreateCategory persists a new category. Step ids are assigned here; the
// caller's slug wins, a duplicate returns ErrSlugTaken.
func (r *Repo) CreateCategory(ctx context.Context, cat *forms.Category) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&CategoryRecord{}).Where("slug = ?", cat.Slug).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrSlugTaken
	}
	rec := &CategoryRecord{Slug: cat.Slug, Name: cat.Name, NextStepID: 1}
	assignStepIDs(cat, &rec.NextStepID)
	b, err := json.Marshal(cat.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	rec.Steps = b
	return r.db.WithContext(ctx).Create(rec).Error
}

// ReplaceCategory is a full-document replace of name and steps. The slug is
// immutable once created.
func (r *Repo) ReplaceCategory(ctx context.Context, slug string, cat *forms.Category) error {
	var rec CategoryRecord
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	assignStepIDs(cat, &rec.NextStepID)
	b, err := json.Marshal(cat.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	rec.Name = cat.Name
	rec.Steps = b
	return r.db.WithContext(ctx).Save(&rec).Error
}

// DeleteCategory removes the template. Existing tickets keep rendering from
// their own content keys, so nothing cascades to them.
func (r *Repo) DeleteCategory(ctx context.Context, slug string) error {
	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&CategoryRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCategory loads one template by slug.
func (r *Repo) GetCategory(ctx context.Context, slug string) (*forms.Category, uint, error) {
	var rec CategoryRecord
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	cat, err := fromRecord(&rec)
	return cat, rec.ID, err
}

// GetCategoryByID loads a template by row id (ticket submissions reference
// categories by id).
func (r *Repo) GetCategoryByID(ctx context.Context, id uint) (*forms.Category, error) {
	var rec CategoryRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fromRecord(&rec)
}

// ListCategories returns all templates ordered by name.
func (r *Repo) ListCategories(ctx context.Context) ([]*forms.Category, error) {
	var recs []CategoryRecord
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*forms.Category, 0, len(recs))
	for i := range recs {
		cat, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

func fromRecord(rec *CategoryRecord) (*forms.Category, error) {
	cat := &forms.Category{Slug: rec.Slug, Name: rec.Name}
	if err := json.Unmarshal(rec.Steps, &cat.Steps); err != nil {
		return nil, fmt.Errorf("category %s: decode steps: %w", rec.Slug, err)
	}
	return cat, nil
}

func assignStepIDs(cat *forms.Category, next *uint) {
	for i := range cat.Steps {
		if cat.Steps[i].ID == 0 {
			cat.Steps[i].ID = *next
			*next++
		}
	}
}

// ---- tickets ----

// CreateTicket stores an encoded submission. Content must already be in the
// "<key>--<type>" shape; the repo does not re-validate it.
func (r *Repo) CreateTicket(ctx context.Context, userID, categoryID uint, categorySlug string, content map[string]any) (*TicketRecord, error) {
	b, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}
	t := &TicketRecord{CategoryID: categoryID, CategorySlug: categorySlug, UserID: userID, Status: StatusOpen, Content: b}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repo) GetTicket(ctx context.Context, id uint) (*TicketRecord, error) {
	var t TicketRecord
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListTickets returns a user's tickets, newest first. A zero userID lists
// everyone's (admin view).
func (r *Repo) ListTickets(ctx context.Context, userID uint, status string, limit, offset int) ([]TicketRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&TicketRecord{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var out []TicketRecord
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CloseTicket flips status to closed. Closing twice is harmless.
func (r *Repo) CloseTicket(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&TicketRecord{}).Where("id = ?", id).Update("status", StatusClosed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Content decodes the stored answer map.
func (t *TicketRecord) ContentMap() (map[string]any, error) {
	out := map[string]any{}
	if err := json.Unmarshal(t.Content, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- messages ----

// AppendMessage adds to a ticket's thread. Once the ticket is closed no
// further messages may be appended, by either party.
func (r *Repo) AppendMessage(ctx context.Context, ticketID, userID uint, content string, attachments []string) (*MessageRecord, error) {
	t, err := r.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusClosed {
		return nil, ErrTicketClosed
	}
	ab, err := json.Marshal(attachments)
	if err != nil {
		return nil, err
	}
	m := &MessageRecord{TicketID: ticketID, UserID: userID, Content: content, Attachments: ab}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repo) ListMessages(ctx context.Context, ticketID uint) ([]MessageRecord, error) {
	var out []MessageRecord
	err := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Order("created_at ASC").Find(&out).Error
	return out, err
}
