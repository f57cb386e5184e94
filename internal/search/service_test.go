package search_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/match"
	"github.com/fairyhunter13/cv-ranking-engine/internal/search"
)

type fakeIndex struct {
	hits       []domain.Hit
	searchErr  error
	ensureErr  error
	lastQuery  map[string]any
	lastSize   int
	indexed    map[string]domain.CandidateExtraction
	ensureSeen int
}

func (f *fakeIndex) EnsureIndex(_ context.Context) error {
	f.ensureSeen++
	return f.ensureErr
}

func (f *fakeIndex) IndexCandidate(_ context.Context, id string, c domain.CandidateExtraction) error {
	if f.indexed == nil {
		f.indexed = map[string]domain.CandidateExtraction{}
	}
	f.indexed[id] = c
	return nil
}

func (f *fakeIndex) Search(_ context.Context, query map[string]any, size int) ([]domain.Hit, error) {
	f.lastQuery = query
	f.lastSize = size
	return f.hits, f.searchErr
}

func candidateWithSkills(skills ...string) domain.CandidateExtraction {
	return domain.CandidateExtraction{Skills: skills, ExperienceYears: 5}
}

func TestSearchCandidates_LocalScoreDecidesOrder(t *testing.T) {
	// The index likes "weak" more, but local scoring should put "strong"
	// first because it covers both required skills.
	idx := &fakeIndex{hits: []domain.Hit{
		{ID: "weak.pdf", Score: 20, Candidate: candidateWithSkills("go")},
		{ID: "strong.pdf", Score: 10, Candidate: candidateWithSkills("go", "python")},
	}}
	svc := search.NewService(idx, match.NewScorer(), 50, 5)

	req, err := domain.NewRequirementSet("", []string{"go", "python"}, nil, nil, nil, 0)
	require.NoError(t, err)

	ranked, err := svc.SearchCandidates(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "strong.pdf", ranked[0].FileName)
	assert.Equal(t, "weak.pdf", ranked[1].FileName)

	// Index scores survive normalized against the best hit.
	require.NotNil(t, ranked[0].ElasticsearchScore)
	assert.InDelta(t, 50.0, *ranked[0].ElasticsearchScore, 0.001)
	require.NotNil(t, ranked[1].ElasticsearchScore)
	assert.InDelta(t, 100.0, *ranked[1].ElasticsearchScore, 0.001)
}

func TestSearchCandidates_CapsResultSize(t *testing.T) {
	var hits []domain.Hit
	for i := 0; i < 12; i++ {
		hits = append(hits, domain.Hit{
			ID:        fmt.Sprintf("cv-%d.pdf", i),
			Score:     float64(12 - i),
			Candidate: candidateWithSkills("go"),
		})
	}
	idx := &fakeIndex{hits: hits}
	svc := search.NewService(idx, match.NewScorer(), 50, 5)

	req, err := domain.NewRequirementSet("", []string{"go"}, nil, nil, nil, 0)
	require.NoError(t, err)

	ranked, err := svc.SearchCandidates(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, ranked, 5)
	assert.Equal(t, 50, idx.lastSize)
}

func TestSearchCandidates_TiesKeepIndexOrder(t *testing.T) {
	idx := &fakeIndex{hits: []domain.Hit{
		{ID: "first.pdf", Score: 9, Candidate: candidateWithSkills("go")},
		{ID: "second.pdf", Score: 9, Candidate: candidateWithSkills("go")},
	}}
	svc := search.NewService(idx, match.NewScorer(), 50, 5)

	req, err := domain.NewRequirementSet("", []string{"go"}, nil, nil, nil, 0)
	require.NoError(t, err)

	ranked, err := svc.SearchCandidates(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "first.pdf", ranked[0].FileName)
	assert.Equal(t, "second.pdf", ranked[1].FileName)
}

func TestSearchCandidates_IndexErrorWrapsSearchError(t *testing.T) {
	idx := &fakeIndex{searchErr: errors.New("connection refused")}
	svc := search.NewService(idx, match.NewScorer(), 50, 5)

	req, err := domain.NewRequirementSet("", []string{"go"}, nil, nil, nil, 0)
	require.NoError(t, err)

	_, err = svc.SearchCandidates(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearch)
}

func TestSearchCandidates_EmptyHits(t *testing.T) {
	idx := &fakeIndex{}
	svc := search.NewService(idx, match.NewScorer(), 50, 5)

	req, err := domain.NewRequirementSet("", []string{"go"}, nil, nil, nil, 0)
	require.NoError(t, err)

	ranked, err := svc.SearchCandidates(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestIndexCandidate_EnsuresThenIndexes(t *testing.T) {
	idx := &fakeIndex{}
	svc := search.NewService(idx, match.NewScorer(), 50, 5)

	err := svc.IndexCandidate(context.Background(), "jane.pdf", candidateWithSkills("go"))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.ensureSeen)
	assert.Contains(t, idx.indexed, "jane.pdf")
}
