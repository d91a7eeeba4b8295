package handlers

import (
	"analyst/internal/middleware"
	"analyst/internal/services"
	"analyst/pkg/apierr"

	"github.com/gofiber/fiber/v2"
)

// DocumentHandler handles HTTP requests for document ingestion.
type DocumentHandler struct {
	docService *services.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
	}
}

// RegisterRoutes registers the document routes. optionalAuth resolves an
// uploader identity when a token is present; anonymous uploads are allowed.
func (h *DocumentHandler) RegisterRoutes(router fiber.Router, optionalAuth fiber.Handler) {
	docs := router.Group("/docs")
	docs.Post("/upload", optionalAuth, h.HandleUpload)
	docs.Get("/extract", h.HandleList)
	docs.Get("/:id", h.HandleGetByID)
}

// HandleUpload accepts a multipart upload under the "file" field and runs
// the ingestion pipeline.
func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return apierr.BadRequest("No file uploaded")
	}

	var uploaderID *string
	if user := middleware.UserFromContext(c); user != nil {
		uploaderID = &user.ID
	}

	doc, err := h.docService.Ingest(file, uploaderID)
	if err != nil {
		return err
	}

	return apiResponse(c, fiber.StatusCreated, doc, "Document uploaded & text extracted successfully")
}

// HandleList returns every document record, newest first.
func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	docs, err := h.docService.List()
	if err != nil {
		return err
	}
	return apiResponse(c, fiber.StatusOK, docs, "Fetched documents")
}

// HandleGetByID returns a single document record by id.
func (h *DocumentHandler) HandleGetByID(c *fiber.Ctx) error {
	doc, err := h.docService.GetByID(c.Params("id"))
	if err != nil {
		return err
	}
	return apiResponse(c, fiber.StatusOK, doc, "Fetched document")
}
