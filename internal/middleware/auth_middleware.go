package middleware

import (
	"errors"
	"strings"

	"analyst/internal/models"
	"analyst/internal/repositories"
	"analyst/internal/services"
	"analyst/pkg/apierr"

	"github.com/gofiber/fiber/v2"
)

// UserContextKey is the Locals key under which the resolved user is stored.
const UserContextKey = "user"

// AccessTokenCookie and RefreshTokenCookie are the cookie names set on login.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// extractToken pulls the candidate access token from the request: the
// accessToken cookie wins, else the Authorization header's Bearer value.
func extractToken(c *fiber.Ctx) string {
	if cookie := c.Cookies(AccessTokenCookie); cookie != "" {
		return cookie
	}
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// resolveUser validates the token and loads the matching user with the
// credential fields stripped.
func resolveUser(c *fiber.Ctx, tokenService *services.TokenService, userRepo repositories.UserRepository) (*models.User, error) {
	token := extractToken(c)
	if token == "" {
		return nil, apierr.Unauthorized("Unauthorized request. Token is missing.")
	}

	claims, err := tokenService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	id, _ := claims["id"].(string)
	user, err := userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apierr.Unauthorized("Invalid access token. User not found.")
		}
		return nil, apierr.Internal("Something went wrong while resolving the user", err)
	}
	return user.Sanitized(), nil
}

// AuthRequired rejects any request without a valid access token and a
// matching user. Rejections surface through the terminal error handler as
// structured 401 responses, never silently.
func AuthRequired(tokenService *services.TokenService, userRepo repositories.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolveUser(c, tokenService, userRepo)
		if err != nil {
			return err
		}
		c.Locals(UserContextKey, user)
		return c.Next()
	}
}

// OptionalAuth resolves an uploader identity when a valid token is present
// but lets anonymous requests through untouched.
func OptionalAuth(tokenService *services.TokenService, userRepo repositories.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, err := resolveUser(c, tokenService, userRepo); err == nil {
			c.Locals(UserContextKey, user)
		}
		return c.Next()
	}
}

// UserFromContext returns the user attached by AuthRequired/OptionalAuth,
// or nil when the request is anonymous.
func UserFromContext(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(UserContextKey).(*models.User)
	return user
}
