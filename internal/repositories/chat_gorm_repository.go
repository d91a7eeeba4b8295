package repositories

import (
	"fmt"

	"analyst/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMChatRepository is a GORM implementation of ChatRepository.
type GORMChatRepository struct {
	db *gorm.DB
}

// NewGORMChatRepository creates a new instance of GORMChatRepository.
func NewGORMChatRepository(db *gorm.DB) *GORMChatRepository {
	return &GORMChatRepository{
		db: db,
	}
}

// Create persists a new chat exchange.
func (r *GORMChatRepository) Create(exchange *models.ChatExchange) error {
	if exchange.ID == "" {
		exchange.ID = uuid.New().String()
	}
	if err := r.db.Create(exchange).Error; err != nil {
		return fmt.Errorf("failed to create chat exchange: %w", err)
	}
	return nil
}

// GetAll returns all exchanges ordered by creation time, newest first.
func (r *GORMChatRepository) GetAll() ([]models.ChatExchange, error) {
	var exchanges []models.ChatExchange
	if err := r.db.Order("created_at DESC").Find(&exchanges).Error; err != nil {
		return nil, fmt.Errorf("failed to list chat exchanges: %w", err)
	}
	return exchanges, nil
}
