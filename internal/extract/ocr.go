package extract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// OCRExtractor recognizes text with Tesseract. Used as the fallback for
// scanned documents whose structured extraction came up empty.
type OCRExtractor struct {
	// Language passed to Tesseract, default "eng".
	Language string
}

// NewOCRExtractor creates the OCR extractor.
func NewOCRExtractor() *OCRExtractor {
	return &OCRExtractor{Language: "eng"}
}

// Extract runs OCR over the file at path. No deadline is applied; long
// recognitions run to completion or failure.
func (e *OCRExtractor) Extract(path, mimeType string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if e.Language != "" {
		if err := client.SetLanguage(e.Language); err != nil {
			return "", fmt.Errorf("tesseract language setup failed: %w", err)
		}
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("tesseract could not read %s: %w", path, err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %w", err)
	}
	return text, nil
}
