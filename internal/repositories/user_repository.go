package repositories

import (
	"errors"

	"analyst/internal/models"
)

// Sentinel errors shared by all repository implementations. Services map
// these onto the HTTP error taxonomy; repositories stay transport-agnostic.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsernameOrEmail(username, email string) (*models.User, error)
	// UpdateRefreshToken writes only the refresh_token column, bypassing
	// model hooks and field validation.
	UpdateRefreshToken(id, refreshToken string) error
}
