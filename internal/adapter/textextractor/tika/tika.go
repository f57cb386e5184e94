// Package tika extracts document text through an Apache Tika server.
//
// It performs PUT /tika with Accept: text/plain. See
// https://tika.apache.org/server/ for API details.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/pkg/textx"
)

// Client is a minimal Tika HTTP client implementing domain.TextExtractor.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Tika client with a default timeout.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9998"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ExtractPath uploads the file at path and returns its plain text, control
// characters stripped and whitespace collapsed.
func (c *Client) ExtractPath(ctx context.Context, fileName, path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w: %v", domain.ErrExtraction, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w: %v", domain.ErrExtraction, err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", contentTypeFor(fileName, data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w: %v", domain.ErrExtraction, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("op=tika.extract: %w: tika status %d", domain.ErrExtraction, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w: %v", domain.ErrExtraction, err)
	}

	sanitized := textx.SanitizeText(string(b))
	return strings.Join(strings.Fields(sanitized), " "), nil
}

// contentTypeFor sniffs the content type from the bytes, falling back on the
// file extension for formats the sniffer reports too generically.
func contentTypeFor(fileName string, data []byte) string {
	detected := mimetype.Detect(data)
	if detected.Is("application/octet-stream") || detected.Is("text/plain") {
		switch strings.ToLower(filepath.Ext(fileName)) {
		case ".pdf":
			return "application/pdf"
		case ".docx":
			return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		case ".txt", "":
			return "text/plain"
		}
	}
	return detected.String()
}
