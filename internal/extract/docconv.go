package extract

import (
	"fmt"

	"code.sajari.com/docconv"
)

// DocconvExtractor is the structured-document backend. docconv picks its
// converter from the file itself, so the MIME hint is unused here.
type DocconvExtractor struct{}

// NewDocconvExtractor creates the structured extractor.
func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{}
}

// Extract converts the file at path to plain text.
func (e *DocconvExtractor) Extract(path, mimeType string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("docconv conversion failed: %w", err)
	}
	return res.Body, nil
}
