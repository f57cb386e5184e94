package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/observability"
	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/match"
)

// Service fronts the search index and re-ranks its hits with the local
// scoring model before returning them.
type Service struct {
	index      domain.SearchIndex
	scorer     *match.Scorer
	fetchSize  int
	resultSize int
}

// NewService wires a Service. fetchSize is how many hits to pull from the
// index for re-ranking; resultSize caps the returned slice.
func NewService(index domain.SearchIndex, scorer *match.Scorer, fetchSize, resultSize int) *Service {
	if fetchSize <= 0 {
		fetchSize = 50
	}
	if resultSize <= 0 {
		resultSize = 5
	}
	return &Service{index: index, scorer: scorer, fetchSize: fetchSize, resultSize: resultSize}
}

// IndexCandidate upserts a candidate document under id, creating the index
// on first use.
func (s *Service) IndexCandidate(ctx context.Context, id string, c domain.CandidateExtraction) error {
	if err := s.index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("op=search.index: %w: %v", domain.ErrSearch, err)
	}
	if err := s.index.IndexCandidate(ctx, id, c); err != nil {
		return fmt.Errorf("op=search.index: %w: %v", domain.ErrSearch, err)
	}
	return nil
}

// SearchCandidates queries the index for req and re-ranks the hits locally.
// The index score survives only as a normalized 0-100 reference value; the
// final order is decided by the local total score.
func (s *Service) SearchCandidates(ctx context.Context, req domain.RequirementSet) ([]domain.RankedCandidate, error) {
	start := time.Now()

	if err := s.index.EnsureIndex(ctx); err != nil {
		observability.SearchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("op=search.candidates: %w: %v", domain.ErrSearch, err)
	}

	hits, err := s.index.Search(ctx, BuildQuery(req), s.fetchSize)
	if err != nil {
		observability.SearchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("op=search.candidates: %w: %v", domain.ErrSearch, err)
	}

	var maxScore float64
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}

	ranked := make([]domain.RankedCandidate, 0, len(hits))
	for _, h := range hits {
		rc := domain.RankedCandidate{
			CandidateExtraction: h.Candidate,
			MatchResult:         s.scorer.Score(h.Candidate, req),
			FileName:            h.ID,
		}
		if maxScore > 0 {
			norm := h.Score / maxScore * 100
			rc.ElasticsearchScore = &norm
		}
		ranked = append(ranked, rc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return totalOf(ranked[i]) > totalOf(ranked[j])
	})
	if len(ranked) > s.resultSize {
		ranked = ranked[:s.resultSize]
	}

	observability.SearchesTotal.WithLabelValues("ok").Inc()
	slog.DebugContext(ctx, "search re-ranked",
		slog.Int("hits", len(hits)),
		slog.Int("returned", len(ranked)),
		slog.Duration("took", time.Since(start)))
	return ranked, nil
}

func totalOf(rc domain.RankedCandidate) float64 {
	if rc.TotalScore == nil {
		return -1
	}
	return *rc.TotalScore
}
