// Package local extracts text in-process, without a Tika server. It handles
// PDF and plain-text documents only; anything else needs the Tika extractor.
package local

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/pkg/textx"
)

// Extractor implements domain.TextExtractor for PDF and plain text files.
type Extractor struct{}

// New returns a local extractor.
func New() *Extractor { return &Extractor{} }

// ExtractPath reads the file at path and returns its plain text.
func (e *Extractor) ExtractPath(_ context.Context, fileName, path string) (string, error) {
	path = filepath.Clean(path)

	if isPDF(fileName, path) {
		return extractPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("op=local.extract: %w: %v", domain.ErrExtraction, err)
	}
	if !isTextual(data) {
		return "", fmt.Errorf("op=local.extract: %w: unsupported format %q", domain.ErrExtraction, filepath.Ext(fileName))
	}
	return collapse(string(data)), nil
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("op=local.extract: %w: %v", domain.ErrExtraction, err)
	}
	defer func() { _ = f.Close() }()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("op=local.extract: %w: %v", domain.ErrExtraction, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("op=local.extract: %w: %v", domain.ErrExtraction, err)
	}
	return collapse(buf.String()), nil
}

func isPDF(fileName, path string) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return true
	}
	detected, err := mimetype.DetectFile(path)
	return err == nil && detected.Is("application/pdf")
}

func isTextual(data []byte) bool {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(textx.SanitizeText(s)), " ")
}
