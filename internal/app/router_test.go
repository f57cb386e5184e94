package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/ai/stub"
	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/httpserver"
	"github.com/fairyhunter13/cv-ranking-engine/internal/app"
	"github.com/fairyhunter13/cv-ranking-engine/internal/config"
	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/match"
	"github.com/fairyhunter13/cv-ranking-engine/internal/pipeline"
	"github.com/fairyhunter13/cv-ranking-engine/internal/search"
	"github.com/fairyhunter13/cv-ranking-engine/internal/usecase"
)

type nopIndex struct{}

func (nopIndex) EnsureIndex(context.Context) error { return nil }
func (nopIndex) IndexCandidate(context.Context, string, domain.CandidateExtraction) error {
	return nil
}
func (nopIndex) Search(context.Context, map[string]any, int) ([]domain.Hit, error) {
	return nil, nil
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{
		AppEnv:           "test",
		CORSAllowOrigins: "*",
		RateLimitPerMin:  100,
		HTTPWriteTimeout: 10 * time.Second,
	}
	pipe := pipeline.New(nil, stub.New(), pipeline.NewMemoryStore(), pipeline.NewMemoryStore(), pipeline.Options{
		MaxConcurrent: 2,
		BatchSize:     3,
		BatchPause:    time.Millisecond,
	})
	t.Cleanup(pipe.Close)
	scorer := match.NewScorer()
	srv := httpserver.NewServer(cfg,
		usecase.NewCompareService(pipe, scorer),
		usecase.NewIndexService(pipe, nopIndex{}),
		search.NewService(nopIndex{}, scorer, 50, 5),
	)
	return app.BuildRouter(cfg, srv)
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://a.test", []string{"https://a.test"}},
		{"https://a.test, https://b.test", []string{"https://a.test", "https://b.test"}},
		{" , ", []string{"*"}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, app.ParseOrigins(tc.in), "input %q", tc.in)
	}
}

func TestRouter_Healthz(t *testing.T) {
	router := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouter_Metrics(t *testing.T) {
	router := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CompareBadJSON(t *testing.T) {
	router := newRouter(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/candidates/compare", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
