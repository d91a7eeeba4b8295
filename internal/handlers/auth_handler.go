package handlers

import (
	"fmt"
	"strings"
	"time"

	"analyst/internal/middleware"
	"analyst/internal/services"
	"analyst/pkg/apierr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// authCookieMaxAge is the lifetime of both auth cookies (10 days).
const authCookieMaxAge = 10 * 24 * time.Hour

// AuthHandler handles HTTP requests for the account lifecycle.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user routes. requireAuth guards the routes
// that need a resolved identity.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	users := router.Group("/users")
	users.Post("/register", h.HandleRegister)
	users.Post("/login", h.HandleLogin)
	users.Post("/logout", requireAuth, h.HandleLogout)
	users.Post("/refresh", h.HandleRefresh)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=6,max=50"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apierr.BadRequest("Invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}

	user, err := h.authService.Register(req.Username, req.Email, req.FullName, req.Password)
	if err != nil {
		return err
	}

	return apiResponse(c, fiber.StatusCreated, user, "User registered successfully")
}

// LoginRequest represents the request body for login. Either identifier
// works; password is always required.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin authenticates the user and sets both token cookies.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apierr.BadRequest("Invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}

	user, accessToken, refreshToken, err := h.authService.Login(req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	setAuthCookie(c, middleware.AccessTokenCookie, accessToken)
	setAuthCookie(c, middleware.RefreshTokenCookie, refreshToken)

	return apiResponse(c, fiber.StatusOK, fiber.Map{
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	}, "User logged in successfully")
}

// HandleLogout clears the stored refresh token and both cookies. Requires
// the auth middleware to have resolved the user already.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	user := middleware.UserFromContext(c)
	if user == nil {
		return apierr.Unauthorized("Unauthorized request. Token is missing.")
	}

	if err := h.authService.Logout(user.ID); err != nil {
		return err
	}

	clearAuthCookie(c, middleware.AccessTokenCookie)
	clearAuthCookie(c, middleware.RefreshTokenCookie)

	return apiResponse(c, fiber.StatusOK, fiber.Map{
		"username":    user.Username,
		"fullName":    user.FullName,
		"loggedOutAt": time.Now(),
	}, "User logged out successfully")
}

// RefreshRequest carries a refresh token for clients that do not use the
// cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh rotates the token pair from a presented refresh token.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	presented := c.Cookies(middleware.RefreshTokenCookie)
	if presented == "" {
		var req RefreshRequest
		if err := c.BodyParser(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	user, accessToken, refreshToken, err := h.authService.Refresh(presented)
	if err != nil {
		return err
	}

	setAuthCookie(c, middleware.AccessTokenCookie, accessToken)
	setAuthCookie(c, middleware.RefreshTokenCookie, refreshToken)

	return apiResponse(c, fiber.StatusOK, fiber.Map{
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	}, "Tokens refreshed successfully")
}

// setAuthCookie sets a token cookie: http-only, secure, cross-site capable,
// fixed 10-day lifetime.
func setAuthCookie(c *fiber.Ctx, name, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(authCookieMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}

func clearAuthCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}

// validationError folds validator failures into one BadRequest message.
func validationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierr.BadRequest("Validation failed")
	}
	parts := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		parts = append(parts, fmt.Sprintf("field '%s' failed on the '%s' rule", e.Field(), e.Tag()))
	}
	return apierr.BadRequest("Validation failed: " + strings.Join(parts, "; "))
}
