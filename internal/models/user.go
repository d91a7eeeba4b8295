package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User represents an account of the chat application.
// Password and RefreshToken never serialize to JSON.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username     string    `json:"username" gorm:"uniqueIndex;type:varchar(50)" validate:"required,min=6,max=50"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	FullName     string    `json:"fullName" gorm:"type:varchar(50)" validate:"required,min=3,max=50"`
	Password     string    `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	Avatar       string    `json:"avatar,omitempty" gorm:"type:varchar(512)"`
	RefreshToken string    `json:"-" gorm:"type:varchar(512)"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Normalize lowercases and trims the identity fields so uniqueness checks
// and lookups are case-insensitive.
func (u *User) Normalize() {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FullName = strings.TrimSpace(u.FullName)
}

// BeforeCreate hashes the password before the record reaches the database.
// Insert is the only write path that carries a plaintext password, so the
// hook hashes unconditionally: a plaintext that happens to look like a
// bcrypt string is hashed like any other. Later refresh-token writes go
// through UpdateColumn and never touch this hook.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Password == "" {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// IsPasswordCorrect compares a candidate plaintext against the stored hash.
func (u *User) IsPasswordCorrect(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Sanitized returns a copy safe to hand to the transport layer: the hash and
// the refresh token are blanked even for code paths that bypass JSON tags.
func (u *User) Sanitized() *User {
	clean := *u
	clean.Password = ""
	clean.RefreshToken = ""
	return &clean
}
