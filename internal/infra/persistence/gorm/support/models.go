package support

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CategoryRecord stores an admin-defined ticket template. The step/field
// tree lives in a JSON column: array order in the document is the only
// source of step and field order.
type CategoryRecord struct {
	gorm.Model
	Slug  string         `gorm:"uniqueIndex;size:128;not null"`
	Name  string         `gorm:"size:255;not null"`
	Steps datatypes.JSON `gorm:"type:json;not null"`
	// NextStepID hands out step ids on persist; ids survive reordering.
	NextStepID uint `gorm:"default:1"`
}

// TicketRecord is a submitted category instance. Content keys use the
// "<fieldKey>--<fieldType>" encoding, so the record renders without the
// category surviving. CategoryID is therefore informational, not a foreign
// key the read path depends on.
type TicketRecord struct {
	gorm.Model
	CategoryID   uint           `gorm:"index"`
	CategorySlug string         `gorm:"size:128;index"`
	UserID       uint           `gorm:"index;not null"`
	Status       string         `gorm:"size:16;index;not null"` // open|closed
	Content      datatypes.JSON `gorm:"type:json;not null"`
}

// MessageRecord is one entry of a ticket's thread.
type MessageRecord struct {
	gorm.Model
	TicketID    uint           `gorm:"index;not null"`
	UserID      uint           `gorm:"index;not null"`
	Content     string         `gorm:"type:text"` // sanitized HTML
	Attachments datatypes.JSON `gorm:"type:json"` // JSON array of URLs
}

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&CategoryRecord{}, &TicketRecord{}, &MessageRecord{})
}
