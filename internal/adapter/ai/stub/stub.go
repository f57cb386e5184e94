// Package stub provides a fast deterministic AI client for local development
// and tests. It never leaves the process.
package stub

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
)

var knownTerms = []string{
	"go", "golang", "python", "java", "javascript", "typescript", "php",
	"ruby", "c++", "c#", "sql", "html", "css", "react", "vue", "angular",
	"django", "rails", "spring", "laravel",
	"docker", "kubernetes", "git", "jenkins", "terraform", "ansible",
	"postgresql", "mysql", "mongodb", "redis", "elasticsearch", "kafka",
	"aws", "gcp", "azure", "linux", "grafana", "prometheus",
}

var toolTerms = map[string]bool{
	"docker": true, "kubernetes": true, "git": true, "jenkins": true,
	"terraform": true, "ansible": true, "postgresql": true, "mysql": true,
	"mongodb": true, "redis": true, "elasticsearch": true, "kafka": true,
	"aws": true, "gcp": true, "azure": true, "linux": true,
	"grafana": true, "prometheus": true,
}

var yearsRe = regexp.MustCompile(`(\d+)\s*(?:\+\s*)?years?`)

// Client scans the document for a fixed vocabulary and returns a plausible
// extraction payload. Output is deterministic for a given input.
type Client struct{}

// New returns a stub client.
func New() *Client { return &Client{} }

// ExtractCandidate returns a JSON extraction assembled from literal term
// matches in text, wrapped in prose the way real models tend to answer.
func (c *Client) ExtractCandidate(_ domain.Context, text, _ string, known domain.ContactInfo) (string, error) {
	lowered := strings.ToLower(text)

	var skills, tools []string
	for _, term := range knownTerms {
		if !strings.Contains(lowered, term) {
			continue
		}
		if toolTerms[term] {
			tools = append(tools, term)
		} else {
			skills = append(skills, term)
		}
	}

	years := 0
	if m := yearsRe.FindStringSubmatch(lowered); m != nil {
		for _, r := range m[1] {
			years = years*10 + int(r-'0')
		}
	}

	payload := map[string]any{
		"summary":          firstLine(text),
		"email":            known.Email,
		"phone_number":     known.PhoneNumber,
		"skills":           nonNil(skills),
		"tools":            nonNil(tools),
		"education":        []string{},
		"languages":        []string{},
		"experiences":      []any{},
		"experience_years": years,
		"certifications":   []string{},
		"projects":         []string{},
	}
	b, _ := json.Marshal(payload)
	return "Here is the extraction:\n" + string(b), nil
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
