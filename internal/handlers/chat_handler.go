package handlers

import (
	"analyst/internal/services"
	"analyst/pkg/apierr"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler handles HTTP requests for the chat endpoint.
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// RegisterRoutes registers the chat routes.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/chat", h.HandleChat)
	router.Get("/chat/history", h.HandleHistory)
}

// ChatRequest represents one chat turn from the client.
type ChatRequest struct {
	Message string `json:"message"`
}

// HandleChat forwards the message to the responder and returns the reply.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apierr.BadRequest("Invalid request body")
	}

	reply, err := h.chatService.Send(req.Message)
	if err != nil {
		return err
	}

	return apiResponse(c, fiber.StatusOK, reply, "AI response generated successfully")
}

// HandleHistory returns all stored exchanges, newest first.
func (h *ChatHandler) HandleHistory(c *fiber.Ctx) error {
	exchanges, err := h.chatService.History()
	if err != nil {
		return err
	}
	return apiResponse(c, fiber.StatusOK, exchanges, "Fetched chat history")
}
