package repositories

import "analyst/internal/models"

// ChatRepository defines the interface for chat-exchange data access.
// Exchanges are append-only.
type ChatRepository interface {
	Create(exchange *models.ChatExchange) error
	GetAll() ([]models.ChatExchange, error)
}
