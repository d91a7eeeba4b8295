package services

import (
	"errors"
	"fmt"
	"time"

	"analyst/internal/models"
	"analyst/internal/repositories"
	"analyst/pkg/apierr"

	"github.com/dgrijalva/jwt-go"
)

// TokenConfig carries the signing parameters for both token kinds. Access
// and refresh tokens use separate secrets so a leaked access secret cannot
// mint refresh tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// TokenService issues and validates JWT access/refresh token pairs. Only
// the refresh token is persisted; access tokens are trusted purely by
// signature until expiry.
type TokenService struct {
	userRepo repositories.UserRepository
	cfg      TokenConfig
}

// NewTokenService creates a TokenService with injected configuration.
func NewTokenService(userRepo repositories.UserRepository, cfg TokenConfig) *TokenService {
	return &TokenService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// IssueAccessToken signs a short-lived token carrying the user's identity.
// No side effects.
func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"fullName": user.FullName,
		"exp":      now.Add(s.cfg.AccessExpiry).Unix(),
		"iat":      now.Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken signs a longer-lived token carrying only id and email.
// No side effects.
func (s *TokenService) IssueRefreshToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"exp":   now.Add(s.cfg.RefreshExpiry).Unix(),
		"iat":   now.Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// RotateRefreshTokens issues a fresh token pair for the user and persists
// the new refresh token, overwriting (and so invalidating) any prior value.
// Only the refresh_token column is written, so no field re-validation runs.
func (s *TokenService) RotateRefreshTokens(userID string) (accessToken, refreshToken string, err error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", "", apierr.NotFound("User not found while generating tokens")
		}
		return "", "", apierr.Internal("Something went wrong while generating access and refresh tokens", err)
	}

	accessToken, err = s.IssueAccessToken(user)
	if err != nil {
		return "", "", apierr.Internal("Something went wrong while generating access and refresh tokens", err)
	}
	refreshToken, err = s.IssueRefreshToken(user)
	if err != nil {
		return "", "", apierr.Internal("Something went wrong while generating access and refresh tokens", err)
	}

	if err := s.userRepo.UpdateRefreshToken(user.ID, refreshToken); err != nil {
		return "", "", apierr.Internal("Something went wrong while generating access and refresh tokens", err)
	}
	return accessToken, refreshToken, nil
}

// ValidateAccessToken verifies signature and expiry against the access
// secret and returns the embedded claims.
func (s *TokenService) ValidateAccessToken(tokenString string) (jwt.MapClaims, error) {
	return s.validate(tokenString, s.cfg.AccessSecret)
}

// ValidateRefreshToken verifies signature and expiry against the refresh
// secret. Callers must additionally compare the presented token against the
// stored single-slot value before trusting it.
func (s *TokenService) ValidateRefreshToken(tokenString string) (jwt.MapClaims, error) {
	return s.validate(tokenString, s.cfg.RefreshSecret)
}

func (s *TokenService) validate(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, apierr.Unauthorized(fmt.Sprintf("Invalid token: %v", err))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apierr.Unauthorized("Invalid token")
	}
	return claims, nil
}
