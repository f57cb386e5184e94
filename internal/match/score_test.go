package match_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/match"
)

func fullCandidate() domain.CandidateExtraction {
	return domain.CandidateExtraction{
		Skills:    []string{"Go", "Python", "Kubernetes"},
		Tools:     []string{"Docker", "Terraform"},
		Education: []string{"BSc Computer Science"},
		Languages: []string{"English", "Spanish"},
		Experiences: []domain.Experience{
			{Title: "Backend Engineer", Description: "Built Go microservices on Kubernetes", DurationInMonths: 36},
			{Title: "SRE", Description: "Terraform and Docker platform automation", DurationInMonths: 24},
		},
		ExperienceYears: 5,
	}
}

func TestExperienceScore_RampFixtures(t *testing.T) {
	t.Parallel()
	cases := []struct {
		candidateYears float64
		requiredYears  float64
		want           float64
	}{
		{5, 5, 1.0},
		{4, 5, 0.5},  // exactly 80%
		{2, 5, 0.25}, // 40% -> 0.4 * 0.625
		{6, 5, 1.0},  // capped
		{4.5, 5, 0.75},
		{0, 5, 0},
	}
	for _, tc := range cases {
		got := match.ExperienceScore(tc.candidateYears*12, tc.requiredYears*12)
		assert.InDelta(t, tc.want, got, 1e-9, fmt.Sprintf("%v of %v years", tc.candidateYears, tc.requiredYears))
	}
}

func TestExperienceScore_Monotonic(t *testing.T) {
	t.Parallel()
	prev := -1.0
	for m := 0.0; m <= 80; m++ {
		got := match.ExperienceScore(m, 60)
		require.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestScore_AllCategories(t *testing.T) {
	t.Parallel()
	s := match.NewScorer()
	req, err := domain.NewRequirementSet(
		"Go microservices on Kubernetes",
		[]string{"Go", "Python"},
		[]string{"Docker"},
		[]string{"BSc Computer Science"},
		[]string{"English"},
		5,
	)
	require.NoError(t, err)

	res := s.Score(fullCandidate(), req)
	require.NotNil(t, res.TotalScore)
	assert.Len(t, res.ComponentScores, 6)
	assert.Equal(t, []string{"Go", "Python"}, res.MatchingSkills)
	assert.Empty(t, res.MissingSkills)
	require.NotNil(t, res.SkillMatchPercent)
	assert.Equal(t, 100, *res.SkillMatchPercent)
	require.NotNil(t, res.ToolMatchPercent)
	assert.Equal(t, 100, *res.ToolMatchPercent)
	assert.InDelta(t, 1.0, *res.TotalScore, 1e-9)
}

func TestScore_MissingItemsReported(t *testing.T) {
	t.Parallel()
	s := match.NewScorer()
	req, err := domain.NewRequirementSet("", []string{"Go", "Rust"}, []string{"Docker", "Ansible"}, nil, nil, 0)
	require.NoError(t, err)

	res := s.Score(fullCandidate(), req)
	assert.Equal(t, []string{"Rust"}, res.MissingSkills)
	assert.Equal(t, []string{"Ansible"}, res.MissingTools)
	require.NotNil(t, res.SkillMatchPercent)
	assert.Equal(t, 50, *res.SkillMatchPercent)
}

func TestScore_NoRequirements_NilTotal(t *testing.T) {
	t.Parallel()
	s := match.NewScorer()
	res := s.Score(fullCandidate(), domain.RequirementSet{})
	assert.Nil(t, res.TotalScore)
	assert.Nil(t, res.SkillMatchPercent)
	assert.Nil(t, res.ToolMatchPercent)
	assert.Empty(t, res.ComponentScores)
}

// TestScore_WeightRenormalization sweeps every subset of present/absent
// requirement categories and checks that included weights are renormalized to
// sum to 1: each present category scores 1 for this candidate, so the total
// must be exactly 1 whenever at least one category is present. Treating
// absent categories as zero would drag the total below 1 and fail here.
func TestScore_WeightRenormalization(t *testing.T) {
	t.Parallel()
	s := match.NewScorer()
	c := domain.CandidateExtraction{
		Skills:          []string{"Go"},
		Tools:           []string{"Docker"},
		Education:       []string{"BSc"},
		Languages:       []string{"English"},
		Experiences:     []domain.Experience{{Title: "Go Docker BSc English engineer", Description: "kubernetes platform"}},
		ExperienceYears: 10,
	}

	for mask := 0; mask < 1<<6; mask++ {
		var req domain.RequirementSet
		if mask&1 != 0 {
			req.Description = "kubernetes platform"
		}
		if mask&2 != 0 {
			req.Skills = []string{"Go"}
		}
		if mask&4 != 0 {
			req.Tools = []string{"Docker"}
		}
		if mask&8 != 0 {
			req.ExperienceYears = 5
		}
		if mask&16 != 0 {
			req.Education = []string{"BSc"}
		}
		if mask&32 != 0 {
			req.Languages = []string{"English"}
		}

		res := s.Score(c, req)
		if mask == 0 {
			assert.Nil(t, res.TotalScore, "mask=0")
			continue
		}
		require.NotNil(t, res.TotalScore, fmt.Sprintf("mask=%06b", mask))
		assert.InDelta(t, 1.0, *res.TotalScore, 1e-9, fmt.Sprintf("mask=%06b", mask))
	}
}

func TestScore_RenormalizationWeighting(t *testing.T) {
	t.Parallel()
	s := match.NewScorer()
	// Skills fully matched, tools fully missed, nothing else required:
	// renormalized weights are .25/.45 and .20/.45.
	req, err := domain.NewRequirementSet("", []string{"Go"}, []string{"Ansible"}, nil, nil, 0)
	require.NoError(t, err)
	res := s.Score(fullCandidate(), req)
	require.NotNil(t, res.TotalScore)
	assert.InDelta(t, 0.25/0.45, *res.TotalScore, 1e-9)
}

func TestDescriptionScore_ViaScore(t *testing.T) {
	t.Parallel()
	s := match.NewScorer()
	req, err := domain.NewRequirementSet("kubernetes terraform cobol", nil, nil, nil, nil, 0)
	require.NoError(t, err)
	res := s.Score(fullCandidate(), req)
	require.NotNil(t, res.TotalScore)
	// 2 of 3 description tokens appear in the candidate's union.
	assert.InDelta(t, 2.0/3.0, res.DescriptionMatchScore, 1e-9)
	assert.InDelta(t, 2.0/3.0, *res.TotalScore, 1e-9)
}
