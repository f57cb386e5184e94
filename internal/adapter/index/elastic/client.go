// Package elastic provides a minimal Elasticsearch HTTP client implementing
// domain.SearchIndex. It talks JSON over the REST API directly and guards
// every call with a circuit breaker.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"log/slog"

	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/observability"
	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
)

// Client is a minimal Elasticsearch HTTP client used by the app.
type Client struct {
	baseURL    string
	index      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]

	ensureMu sync.Mutex
	ensured  bool
}

// New constructs a client for baseURL writing to the named index.
func New(baseURL, index string) *Client {
	settings := gobreaker.Settings{
		Name:    "elasticsearch",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	return &Client{
		baseURL:    baseURL,
		index:      index,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// mapping is the index schema. Category fields are keyword so matches behave
// as whole terms; experiences are a nested object so per-position clauses
// score positions independently.
var mapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"fileName":         map[string]any{"type": "keyword"},
			"email":            map[string]any{"type": "keyword"},
			"phone_number":     map[string]any{"type": "keyword"},
			"skills":           map[string]any{"type": "keyword"},
			"tools":            map[string]any{"type": "keyword"},
			"education":        map[string]any{"type": "keyword"},
			"languages":        map[string]any{"type": "keyword"},
			"experience_years": map[string]any{"type": "integer"},
			"indexed_date":     map[string]any{"type": "date"},
			"experiences": map[string]any{
				"type": "nested",
				"properties": map[string]any{
					"title":              map[string]any{"type": "text"},
					"company":            map[string]any{"type": "text"},
					"description":        map[string]any{"type": "text"},
					"duration":           map[string]any{"type": "text"},
					"duration_in_months": map[string]any{"type": "integer"},
				},
			},
		},
	},
}

// EnsureIndex creates the index with its mapping if it does not exist yet.
// Only success is latched; a transient failure is retried on the next call so
// the process recovers once the index comes back.
func (c *Client) EnsureIndex(ctx context.Context) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.ensured {
		return nil
	}
	if err := c.ensureIndex(ctx); err != nil {
		return err
	}
	c.ensured = true
	return nil
}

func (c *Client) ensureIndex(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodHead, c.indexURL(), nil)
	if err != nil {
		return fmt.Errorf("op=elastic.ensure: %w", err)
	}
	drain(resp)
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	resp, err = c.do(ctx, http.MethodPut, c.indexURL(), mapping)
	if err != nil {
		return fmt.Errorf("op=elastic.ensure: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("op=elastic.ensure: create status %d", resp.StatusCode)
	}
	slog.Info("created search index", slog.String("index", c.index))
	return nil
}

// IndexCandidate upserts the candidate document under id.
func (c *Client) IndexCandidate(ctx context.Context, id string, cand domain.CandidateExtraction) error {
	doc := map[string]any{
		"fileName":         id,
		"email":            cand.Email,
		"phone_number":     cand.PhoneNumber,
		"skills":           cand.Skills,
		"tools":            cand.Tools,
		"education":        cand.Education,
		"languages":        cand.Languages,
		"experience_years": int(cand.ExperienceYears),
		"experiences":      cand.Experiences,
		"indexed_date":     time.Now().UTC().Format(time.RFC3339),
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPut, c.indexURL()+"/_doc/"+url.PathEscape(id), doc)
	observability.ObserveExternalCall("elasticsearch", start)
	if err != nil {
		return fmt.Errorf("op=elastic.index: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("op=elastic.index: status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}
	return nil
}

// Search runs query against the index and returns up to size hits.
func (c *Client) Search(ctx context.Context, query map[string]any, size int) ([]domain.Hit, error) {
	body := make(map[string]any, len(query)+1)
	for k, v := range query {
		body[k] = v
	}
	body["size"] = size

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, c.indexURL()+"/_search", body)
	observability.ObserveExternalCall("elasticsearch", start)
	if err != nil {
		return nil, fmt.Errorf("op=elastic.search: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("op=elastic.search: status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var out struct {
		Hits struct {
			Hits []struct {
				ID     string                     `json:"_id"`
				Score  float64                    `json:"_score"`
				Source domain.CandidateExtraction `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("op=elastic.search: decode: %w", err)
	}

	hits := make([]domain.Hit, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		hits = append(hits, domain.Hit{ID: h.ID, Score: h.Score, Candidate: h.Source})
	}
	return hits, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload any) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) {
		var body io.Reader
		if payload != nil {
			b, err := json.Marshal(payload)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.httpClient.Do(req)
	})
}

func (c *Client) indexURL() string {
	return c.baseURL + "/" + url.PathEscape(c.index)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
