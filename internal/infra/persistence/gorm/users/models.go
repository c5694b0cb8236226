package users

import "gorm.io/gorm"

// UserRecord is a community member or staff account. Steam/Discord links are
// stored as external ids; the linking flows themselves live outside this
// service.
type UserRecord struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	DisplayName  string `gorm:"size:128"`
	PasswordHash string `gorm:"size:255"` // bcrypt
	SteamID      string `gorm:"size:32;index"`
	DiscordID    string `gorm:"size:32;index"`
	Active       bool   `gorm:"default:true"`
}

type RoleRecord struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;size:64;not null"`
	Description string `gorm:"size:256"`
}

type UserRoleRecord struct {
	gorm.Model
	UserID uint `gorm:"index;not null"`
	RoleID uint `gorm:"index;not null"`
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserRecord{}, &RoleRecord{}, &UserRoleRecord{})
}
