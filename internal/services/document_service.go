package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"analyst/internal/models"
	"analyst/internal/repositories"
	"analyst/pkg/apierr"
	"analyst/pkg/events"
)

// MaxUploadSize caps uploads at 10 MiB. Enforced at the transport layer
// (Fiber's body limit) before the pipeline runs.
const MaxUploadSize = 10 << 20

// AllowedFileTypes is the MIME allow-list for uploads.
var AllowedFileTypes = []string{
	"application/pdf",
	"text/plain",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/csv",
}

// TextExtractor yields the plain text of a stored file. Extraction failures
// degrade to "" inside the extractor; this call never errors.
type TextExtractor interface {
	Text(path, mimeType string) string
}

// UploadConfig carries the ingestion pipeline's tunables.
type UploadConfig struct {
	// Dir is the local storage directory, created on first use.
	Dir string
	// RemoveAfterExtract deletes the stored file once its text has been
	// extracted. Off by default: documents are retained alongside their
	// records.
	RemoveAfterExtract bool
}

// DocumentService runs the ingestion pipeline: validate, store, extract,
// persist. The event client may be nil, which disables publishing.
type DocumentService struct {
	docRepo   repositories.DocumentRepository
	extractor TextExtractor
	mqClient  *events.Client
	cfg       UploadConfig
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(docRepo repositories.DocumentRepository, extractor TextExtractor, mqClient *events.Client, cfg UploadConfig) *DocumentService {
	return &DocumentService{
		docRepo:   docRepo,
		extractor: extractor,
		mqClient:  mqClient,
		cfg:       cfg,
	}
}

// typeAllowed checks the declared MIME type against the allow-list.
func typeAllowed(mimeType string) bool {
	for _, allowed := range AllowedFileTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

// storedName generates a collision-resistant filename from a timestamp, a
// random suffix, and the original name. No coordination step needed.
func storedName(originalName string) string {
	return fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), rand.Int63n(1_000_000_000), filepath.Base(originalName))
}

// Ingest accepts one uploaded file and carries it through the pipeline.
// uploaderID is nil for anonymous uploads. Returns the persisted record.
func (s *DocumentService) Ingest(file *multipart.FileHeader, uploaderID *string) (*models.Document, error) {
	if file == nil {
		return nil, apierr.BadRequest("No file uploaded")
	}

	mimeType := file.Header.Get("Content-Type")
	if !typeAllowed(mimeType) {
		// Rejected before anything touches storage.
		return nil, apierr.BadRequest("unsupported file type")
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return nil, apierr.Internal("Something went wrong while storing the file", err)
	}

	filename := storedName(file.Filename)
	destPath := filepath.Join(s.cfg.Dir, filename)
	if err := saveFile(file, destPath); err != nil {
		return nil, apierr.Internal("Something went wrong while storing the file", err)
	}

	// Extraction cannot fail the request; the worst outcome is "".
	extractedText := s.extractor.Text(destPath, mimeType)

	doc := &models.Document{
		Filename:      filename,
		OriginalName:  file.Filename,
		FileType:      mimeType,
		FileSize:      file.Size,
		ExtractedText: extractedText,
		UploadedBy:    uploaderID,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, apierr.Internal("Something went wrong while saving the document", err)
	}

	if s.cfg.RemoveAfterExtract {
		if err := os.Remove(destPath); err != nil {
			log.Printf("Could not delete stored file %s: %v", filename, err)
		}
	}

	if s.mqClient != nil {
		event := map[string]interface{}{
			"documentID": doc.ID,
			"filename":   doc.Filename,
			"fileType":   doc.FileType,
			"fileSize":   doc.FileSize,
			"hasText":    doc.ExtractedText != "",
		}
		if err := s.mqClient.PublishDocumentIngested(event); err != nil {
			log.Printf("Warning: failed to publish document ingested event for %s: %v", doc.ID, err)
		}
	}

	return doc, nil
}

func saveFile(file *multipart.FileHeader, destPath string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

// List returns every document record, newest first. No pagination: the
// fetch is all-or-nothing.
func (s *DocumentService) List() ([]models.Document, error) {
	docs, err := s.docRepo.GetAll()
	if err != nil {
		return nil, apierr.Internal("Something went wrong while fetching documents", err)
	}
	return docs, nil
}

// GetByID fetches one document record. Extraction is not re-run.
func (s *DocumentService) GetByID(id string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apierr.NotFound("Document not found")
		}
		return nil, apierr.Internal("Something went wrong while fetching the document", err)
	}
	return doc, nil
}
