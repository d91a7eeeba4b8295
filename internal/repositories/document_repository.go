package repositories

import "analyst/internal/models"

// DocumentRepository defines the interface for document data access.
// Documents are write-once: there is no update or delete.
type DocumentRepository interface {
	Create(doc *models.Document) error
	GetByID(id string) (*models.Document, error)
	// GetAll returns every document, newest first.
	GetAll() ([]models.Document, error)
}
