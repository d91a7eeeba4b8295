package repositories

import (
	"errors"
	"fmt"

	"analyst/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMDocumentRepository is a GORM implementation of DocumentRepository.
type GORMDocumentRepository struct {
	db *gorm.DB
}

// NewGORMDocumentRepository creates a new instance of GORMDocumentRepository.
func NewGORMDocumentRepository(db *gorm.DB) *GORMDocumentRepository {
	return &GORMDocumentRepository{
		db: db,
	}
}

// Create persists a new document record.
func (r *GORMDocumentRepository) Create(doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID retrieves a document by its ID.
func (r *GORMDocumentRepository) GetByID(id string) (*models.Document, error) {
	var doc models.Document
	if err := r.db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document by ID %s: %w", id, err)
	}
	return &doc, nil
}

// GetAll returns all documents ordered by creation time, newest first.
func (r *GORMDocumentRepository) GetAll() ([]models.Document, error) {
	var docs []models.Document
	if err := r.db.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}
