package repositories

import (
	"sort"
	"sync"

	"analyst/internal/models"

	"github.com/google/uuid"
)

// MockDocumentRepository is an in-memory implementation of DocumentRepository.
type MockDocumentRepository struct {
	docs map[string]models.Document
	mu   sync.RWMutex
}

// NewMockDocumentRepository creates a new instance of MockDocumentRepository.
func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		docs: make(map[string]models.Document),
	}
}

// Create adds a new document.
func (r *MockDocumentRepository) Create(doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	r.docs[doc.ID] = *doc
	return nil
}

// GetByID returns a document by its ID.
func (r *MockDocumentRepository) GetByID(id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

// GetAll returns all documents, newest first.
func (r *MockDocumentRepository) GetAll() ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docList := make([]models.Document, 0, len(r.docs))
	for _, d := range r.docs {
		docList = append(docList, d)
	}
	sort.Slice(docList, func(i, j int) bool {
		return docList[i].CreatedAt.After(docList[j].CreatedAt)
	})
	return docList, nil
}
