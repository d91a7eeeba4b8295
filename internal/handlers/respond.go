package handlers

import (
	"errors"
	"log"
	"net/http"

	"analyst/pkg/apierr"

	"github.com/gofiber/fiber/v2"
)

// apiResponse writes the success envelope shared by every endpoint.
func apiResponse(c *fiber.Ctx, statusCode int, data interface{}, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"statusCode": statusCode,
		"data":       data,
		"message":    message,
		"success":    true,
	})
}

// ErrorHandler is the terminal error-translation stage wired into
// fiber.Config. Every error escaping a handler ends up here and is turned
// into the structured JSON error shape; clients never see a stack trace or
// a framework default page.
func ErrorHandler(c *fiber.Ctx, err error) error {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	var apiErr *apierr.Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.StatusCode
		message = apiErr.Message
	case errors.As(err, &fiberErr):
		// Framework-level errors: unknown route, oversized body, etc.
		statusCode = fiberErr.Code
		message = fiberErr.Message
	}

	if statusCode >= http.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"statusCode": statusCode,
		"message":    message,
		"success":    false,
	})
}
