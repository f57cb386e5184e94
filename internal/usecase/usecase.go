// Package usecase hosts the orchestration facades the HTTP layer calls into.
package usecase

import (
	"context"
	"fmt"
	"sort"

	"log/slog"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/match"
	"github.com/fairyhunter13/cv-ranking-engine/internal/pipeline"
	"github.com/fairyhunter13/cv-ranking-engine/internal/verify"
)

// Document is one already-extracted CV text with its caller-chosen label,
// typically the source file name.
type Document struct {
	Label string
	Text  string
}

// CompareService analyzes a set of documents against one requirement set and
// returns them ranked by the local score.
type CompareService struct {
	pipe   *pipeline.Pipeline
	scorer *match.Scorer
}

// NewCompareService wires a CompareService.
func NewCompareService(pipe *pipeline.Pipeline, scorer *match.Scorer) *CompareService {
	return &CompareService{pipe: pipe, scorer: scorer}
}

// Compare runs the analysis pipeline over docs, scores every extraction
// against req, and returns all documents ranked by total score descending.
// Failed documents come back as degraded entries, never as a missing slot.
func (s *CompareService) Compare(ctx context.Context, req domain.RequirementSet, docs []Document) ([]domain.RankedCandidate, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("op=usecase.Compare: %w: no documents", domain.ErrInvalidArgument)
	}
	// Labels correlate batch results back to their input slot, so they must
	// be unique within one comparison.
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.Label]; dup {
			return nil, fmt.Errorf("op=usecase.Compare: %w: duplicate label %q", domain.ErrInvalidArgument, d.Label)
		}
		seen[d.Label] = struct{}{}
	}

	inputs := make([]pipeline.AnalysisInput, 0, len(docs))
	for _, d := range docs {
		inputs = append(inputs, pipeline.AnalysisInput{
			Text:         d.Text,
			Requirements: req,
			Label:        d.Label,
			Priority:     pipeline.PriorityBatch,
		})
	}
	extractions := s.pipe.AnalyzeBatch(ctx, inputs)

	// Batch results arrive cache-hits-first; restore input order by label
	// before ranking so ties keep the caller's ordering.
	byLabel := make(map[string]domain.CandidateExtraction, len(extractions))
	for _, e := range extractions {
		byLabel[e.Label] = e
	}

	ranked := make([]domain.RankedCandidate, 0, len(docs))
	for _, d := range docs {
		ext, ok := byLabel[d.Label]
		if !ok {
			ext = verify.Degraded(d.Label, fmt.Errorf("missing batch result"))
		}
		ranked = append(ranked, domain.RankedCandidate{
			CandidateExtraction: ext,
			MatchResult:         s.scorer.Score(ext, req),
			FileName:            d.Label,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return totalOf(ranked[i]) > totalOf(ranked[j])
	})

	slog.DebugContext(ctx, "compare ranked", slog.Int("documents", len(docs)))
	return ranked, nil
}

func totalOf(rc domain.RankedCandidate) float64 {
	if rc.TotalScore == nil {
		return -1
	}
	return *rc.TotalScore
}

// Indexer pushes an analyzed candidate into the search index.
type Indexer interface {
	IndexCandidate(ctx context.Context, id string, c domain.CandidateExtraction) error
}

// IndexService analyzes a document and stores the extraction in the index so
// later searches can find it.
type IndexService struct {
	pipe    *pipeline.Pipeline
	indexer Indexer
}

// NewIndexService wires an IndexService.
func NewIndexService(pipe *pipeline.Pipeline, indexer Indexer) *IndexService {
	return &IndexService{pipe: pipe, indexer: indexer}
}

// IndexDocument analyzes doc against an empty requirement set and indexes the
// resulting extraction under the document's label. A degraded extraction is
// not indexed; the analysis error is returned instead.
func (s *IndexService) IndexDocument(ctx context.Context, doc Document) (domain.CandidateExtraction, error) {
	ext, err := s.pipe.Analyze(ctx, doc.Text, domain.RequirementSet{}, doc.Label)
	if err != nil {
		return ext, err
	}
	if err := s.indexer.IndexCandidate(ctx, doc.Label, ext); err != nil {
		return ext, err
	}
	return ext, nil
}
