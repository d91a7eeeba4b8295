package services

import (
	"errors"
	"strings"

	"analyst/internal/models"
	"analyst/internal/repositories"
	"analyst/pkg/apierr"
)

// AuthService handles registration, login, logout, and refresh-token
// renewal over the credential store.
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *TokenService
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register creates a new user. The password reaches the repository as
// plaintext and is hashed by the model's create hook on insert.
// Returns the created record with credentials stripped.
func (s *AuthService) Register(username, email, fullName, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" ||
		strings.TrimSpace(email) == "" ||
		strings.TrimSpace(fullName) == "" ||
		strings.TrimSpace(password) == "" {
		return nil, apierr.BadRequest("All fields are required")
	}

	user := &models.User{
		Username: username,
		Email:    email,
		FullName: fullName,
		Password: password,
	}
	user.Normalize()

	// Pre-check for a friendly 409. The unique index still backs this up:
	// a concurrent registration that slips past the check loses the race
	// at the store and comes back as ErrDuplicate.
	if _, err := s.userRepo.GetByUsernameOrEmail(user.Username, user.Email); err == nil {
		return nil, apierr.Conflict("User with this username or email already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apierr.Internal("Something went wrong while registering the user", err)
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apierr.Conflict("User with this username or email already exists")
		}
		return nil, apierr.Internal("Something went wrong while registering the user", err)
	}

	return user.Sanitized(), nil
}

// Login authenticates by username or email, rotates the refresh token, and
// returns the sanitized user plus both tokens.
func (s *AuthService) Login(username, email, password string) (*models.User, string, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	// Username takes precedence when both identifiers are supplied.
	var user *models.User
	var err error
	switch {
	case username != "":
		user, err = s.userRepo.GetByUsername(username)
	case email != "":
		user, err = s.userRepo.GetByEmail(email)
	default:
		return nil, "", "", apierr.BadRequest("Username or email is required")
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", "", apierr.NotFound("User does not exist")
		}
		return nil, "", "", apierr.Internal("Something went wrong while logging in", err)
	}

	if !user.IsPasswordCorrect(password) {
		return nil, "", "", apierr.Unauthorized("Invalid user credentials")
	}

	accessToken, refreshToken, err := s.tokens.RotateRefreshTokens(user.ID)
	if err != nil {
		return nil, "", "", err
	}

	return user.Sanitized(), accessToken, refreshToken, nil
}

// Logout clears the stored refresh token for the user, invalidating it for
// future renewals.
func (s *AuthService) Logout(userID string) error {
	if err := s.userRepo.UpdateRefreshToken(userID, ""); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apierr.Unauthorized("User not found")
		}
		return apierr.Internal("Something went wrong while logging out", err)
	}
	return nil
}

// Refresh validates a presented refresh token, requires it to match the
// stored single-slot value, and rotates the pair. A token invalidated by
// logout or a later login fails here.
func (s *AuthService) Refresh(presented string) (*models.User, string, string, error) {
	if strings.TrimSpace(presented) == "" {
		return nil, "", "", apierr.Unauthorized("Refresh token is missing")
	}

	claims, err := s.tokens.ValidateRefreshToken(presented)
	if err != nil {
		return nil, "", "", err
	}

	id, _ := claims["id"].(string)
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", "", apierr.Unauthorized("Invalid refresh token. User not found.")
		}
		return nil, "", "", apierr.Internal("Something went wrong while refreshing tokens", err)
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return nil, "", "", apierr.Unauthorized("Refresh token is expired or has been revoked")
	}

	accessToken, refreshToken, err := s.tokens.RotateRefreshTokens(user.ID)
	if err != nil {
		return nil, "", "", err
	}
	return user.Sanitized(), accessToken, refreshToken, nil
}
