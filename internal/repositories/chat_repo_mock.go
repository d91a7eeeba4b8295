package repositories

import (
	"sync"

	"analyst/internal/models"

	"github.com/google/uuid"
)

// MockChatRepository is an in-memory implementation of ChatRepository.
type MockChatRepository struct {
	exchanges []models.ChatExchange
	mu        sync.RWMutex
}

// NewMockChatRepository creates a new instance of MockChatRepository.
func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{}
}

// Create appends a new exchange.
func (r *MockChatRepository) Create(exchange *models.ChatExchange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if exchange.ID == "" {
		exchange.ID = uuid.New().String()
	}
	r.exchanges = append(r.exchanges, *exchange)
	return nil
}

// GetAll returns the stored exchanges, newest first.
func (r *MockChatRepository) GetAll() ([]models.ChatExchange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ChatExchange, len(r.exchanges))
	for i, e := range r.exchanges {
		out[len(r.exchanges)-1-i] = e
	}
	return out, nil
}
