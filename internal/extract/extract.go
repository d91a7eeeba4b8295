// Package extract turns stored upload files into plain text. A structured
// converter handles text-like formats; scans and image-heavy files fall
// through to OCR. Extraction never fails a request: the worst outcome is an
// empty string.
package extract

import (
	"log"
	"strings"
)

// MinStructuredLength is the trimmed-text threshold below which a structured
// extraction is considered low confidence and the OCR fallback runs.
const MinStructuredLength = 50

// Status classifies one extraction attempt.
type Status int

const (
	// StatusOK means the attempt produced usable text.
	StatusOK Status = iota
	// StatusLowConfidence means the attempt succeeded but yielded too
	// little text to trust (e.g. a scanned PDF with an empty text layer).
	StatusLowConfidence
	// StatusFailed means the attempt errored outright.
	StatusFailed
)

// Result is the tagged outcome of a single extraction attempt.
type Result struct {
	Status Status
	Text   string
}

// Extractor is a single extraction backend.
type Extractor interface {
	// Extract returns the plain text of the file at path. The declared
	// MIME type is a hint; backends may ignore it.
	Extract(path, mimeType string) (string, error)
}

// Classify folds an extractor's raw output into a tagged Result using the
// minimum-length threshold.
func Classify(text string, err error, minLength int) Result {
	if err != nil {
		return Result{Status: StatusFailed}
	}
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minLength {
		return Result{Status: StatusLowConfidence, Text: trimmed}
	}
	return Result{Status: StatusOK, Text: trimmed}
}

// Strategy chains a structured extractor with an OCR fallback.
type Strategy struct {
	Structured Extractor
	OCR        Extractor
	// MinLength overrides MinStructuredLength when > 0.
	MinLength int
}

// NewStrategy builds the default two-stage strategy.
func NewStrategy(structured, ocr Extractor) *Strategy {
	return &Strategy{Structured: structured, OCR: ocr}
}

func (s *Strategy) minLength() int {
	if s.MinLength > 0 {
		return s.MinLength
	}
	return MinStructuredLength
}

// structuredEligible reports whether the declared MIME type is worth a
// structured pass at all. Everything else goes straight to OCR.
func structuredEligible(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/") ||
		strings.Contains(mimeType, "word") ||
		strings.Contains(mimeType, "csv") ||
		strings.Contains(mimeType, "pdf")
}

// Text runs the strategy over a stored file. The structured pass runs first
// for eligible types; an error or a low-confidence result triggers the OCR
// fallback. Any failure in the fallback degrades to "".
func (s *Strategy) Text(path, mimeType string) string {
	if s.Structured != nil && structuredEligible(mimeType) {
		raw, err := s.Structured.Extract(path, mimeType)
		res := Classify(raw, err, s.minLength())
		switch res.Status {
		case StatusOK:
			return res.Text
		case StatusLowConfidence:
			log.Printf("structured extraction low confidence for %s, falling back to OCR", path)
		case StatusFailed:
			log.Printf("structured extraction failed for %s, falling back to OCR: %v", path, err)
		}
	}

	if s.OCR == nil {
		return ""
	}
	raw, err := s.OCR.Extract(path, mimeType)
	if err != nil {
		log.Printf("OCR extraction failed for %s: %v", path, err)
		return ""
	}
	return strings.TrimSpace(raw)
}
