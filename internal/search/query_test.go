package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/search"
)

func boolQuery(t *testing.T, q map[string]any) map[string]any {
	t.Helper()
	query, ok := q["query"].(map[string]any)
	require.True(t, ok)
	b, ok := query["bool"].(map[string]any)
	require.True(t, ok)
	return b
}

func TestBuildQuery_CategoryClauses(t *testing.T) {
	req := domain.RequirementSet{
		Skills:    []string{"go", "python"},
		Tools:     []string{"docker"},
		Education: []string{"computer science"},
		Languages: []string{"english"},
	}
	b := boolQuery(t, search.BuildQuery(req))

	assert.Equal(t, 1, b["minimum_should_match"])
	should := b["should"].([]map[string]any)
	require.Len(t, should, 5)

	first := should[0]["match"].(map[string]any)["skills"].(map[string]any)
	assert.Equal(t, "go", first["query"])
	assert.Equal(t, "AUTO", first["fuzziness"])
	assert.Equal(t, 3.0, first["boost"])

	tools := should[2]["match"].(map[string]any)["tools"].(map[string]any)
	assert.Equal(t, 2.5, tools["boost"])

	// No experience requirement, no range filter.
	assert.Empty(t, b["must"])
}

func TestBuildQuery_ExperienceRangeFloor(t *testing.T) {
	b := boolQuery(t, search.BuildQuery(domain.RequirementSet{
		Skills:          []string{"go"},
		ExperienceYears: 5,
	}))

	must := b["must"].([]map[string]any)
	require.Len(t, must, 1)
	rng := must[0]["range"].(map[string]any)["experience_years"].(map[string]any)
	assert.Equal(t, 4.0, rng["gte"])
}

func TestBuildQuery_ExperienceFloorRoundsUp(t *testing.T) {
	b := boolQuery(t, search.BuildQuery(domain.RequirementSet{
		Skills:          []string{"go"},
		ExperienceYears: 3,
	}))
	must := b["must"].([]map[string]any)
	rng := must[0]["range"].(map[string]any)["experience_years"].(map[string]any)
	// 80% of 3 is 2.4, ceiled to 3.
	assert.Equal(t, 3.0, rng["gte"])
}

func TestBuildQuery_DescriptionKeywordsFanOut(t *testing.T) {
	b := boolQuery(t, search.BuildQuery(domain.RequirementSet{
		Description: "kubernetes",
	}))
	should := b["should"].([]map[string]any)
	// One keyword spreads over skills, tools and two nested experience fields.
	require.Len(t, should, 4)

	nested := should[2]["nested"].(map[string]any)
	assert.Equal(t, "experiences", nested["path"])
	assert.Equal(t, "avg", nested["score_mode"])
	title := nested["query"].(map[string]any)["match"].(map[string]any)["experiences.title"].(map[string]any)
	assert.Equal(t, 2.0, title["boost"])
}

func TestDescriptionKeywords(t *testing.T) {
	kws := search.DescriptionKeywords("Senior Gó developer with the Kubernetes and kubernetes expérience, 5+ years")
	assert.Equal(t, []string{"senior", "developer", "kubernetes", "experience"}, kws)
}

func TestDescriptionKeywords_Empty(t *testing.T) {
	assert.Nil(t, search.DescriptionKeywords("   "))
}
