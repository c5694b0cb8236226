package users

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// Create stores a user with a bcrypt password hash.
func (r *Repo) Create(ctx context.Context, username, displayName, password string) (*UserRecord, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &UserRecord{Username: username, DisplayName: displayName, PasswordHash: string(hash), Active: true}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repo) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	var u UserRecord
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Verify checks credentials; inactive accounts never verify.
func (r *Repo) Verify(ctx context.Context, username, password string) (*UserRecord, error) {
	u, err := r.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.Active {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Roles returns the role names of a user.
func (r *Repo) Roles(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&RoleRecord{}).
		Joins("JOIN user_role_records ur ON ur.role_id = role_records.id").
		Where("ur.user_id = ?", userID).
		Pluck("role_records.name", &names).Error
	return names, err
}

// AssignRole links a user to a role, creating the role on first use.
func (r *Repo) AssignRole(ctx context.Context, userID uint, role string) error {
	var rec RoleRecord
	err := r.db.WithContext(ctx).Where("name = ?", role).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec = RoleRecord{Name: role}
		err = r.db.WithContext(ctx).Create(&rec).Error
	}
	if err != nil {
		return err
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&UserRoleRecord{}).
		Where("user_id = ? AND role_id = ?", userID, rec.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&UserRoleRecord{UserID: userID, RoleID: rec.ID}).Error
}

// EnsureAdmin seeds a default admin account when the table is empty, so a
// fresh deployment is reachable. No-op otherwise.
func (r *Repo) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&UserRecord{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	u, err := r.Create(ctx, username, "Administrator", password)
	if err != nil {
		return err
	}
	return r.AssignRole(ctx, u.ID, "admin")
}
