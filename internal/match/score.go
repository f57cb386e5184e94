package match

import (
	"math"
	"strings"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/pkg/textx"
)

// Base weights of the composite score. Categories whose requirement field is
// absent are omitted entirely (score and weight both), and the remaining
// weights are renormalized to sum to 1. Absent is never the same as zero.
const (
	weightDescription = 0.25
	weightSkills      = 0.25
	weightTools       = 0.20
	weightExperience  = 0.15
	weightEducation   = 0.10
	weightLanguages   = 0.05
)

// Scorer computes MatchResults. It owns a Matcher so repeated scoring of the
// same lists (batch comparisons, re-ranking) reuses memoized matches.
type Scorer struct {
	matcher *Matcher
}

// NewScorer constructs a Scorer with a fresh Matcher.
func NewScorer() *Scorer {
	return &Scorer{matcher: NewMatcher()}
}

// Score computes how well candidate c satisfies req. When no requirement
// dimension is present at all, TotalScore is nil: no requirement means no
// score, not a perfect or zero one.
func (s *Scorer) Score(c domain.CandidateExtraction, req domain.RequirementSet) domain.MatchResult {
	res := domain.MatchResult{
		MatchingSkills:  []string{},
		MatchingTools:   []string{},
		MissingSkills:   []string{},
		MissingTools:    []string{},
		ComponentScores: make(map[string]float64, 6),
	}
	var weighted, totalWeight float64
	include := func(name string, weight, score float64) {
		res.ComponentScores[name] = score
		weighted += weight * score
		totalWeight += weight
	}

	if req.Description != "" {
		score := descriptionScore(c, req.Description)
		res.DescriptionMatchScore = score
		include("description", weightDescription, score)
	}
	if len(req.Skills) > 0 {
		matching, missing := s.matcher.FindMatches(c.Skills, req.Skills)
		res.MatchingSkills, res.MissingSkills = matching, missing
		score := float64(len(matching)) / float64(len(req.Skills))
		pct := int(math.Round(score * 100))
		res.SkillMatchPercent = &pct
		include("skills", weightSkills, score)
	}
	if len(req.Tools) > 0 {
		matching, missing := s.matcher.FindMatches(c.Tools, req.Tools)
		res.MatchingTools, res.MissingTools = matching, missing
		score := float64(len(matching)) / float64(len(req.Tools))
		pct := int(math.Round(score * 100))
		res.ToolMatchPercent = &pct
		include("tools", weightTools, score)
	}
	if req.ExperienceYears > 0 {
		include("experience", weightExperience, ExperienceScore(c.ExperienceYears*12, req.ExperienceYears*12))
	}
	if len(req.Education) > 0 {
		matching, _ := s.matcher.FindMatches(c.Education, req.Education)
		include("education", weightEducation, float64(len(matching))/float64(len(req.Education)))
	}
	if len(req.Languages) > 0 {
		matching, _ := s.matcher.FindMatches(c.Languages, req.Languages)
		include("languages", weightLanguages, float64(len(matching))/float64(len(req.Languages)))
	}

	if totalWeight > 0 {
		total := weighted / totalWeight
		res.TotalScore = &total
	}
	return res
}

// ExperienceScore maps candidate months against required months onto [0,1]:
// 1 at or above the requirement, a steeper linear ramp from 0.5 at 80% up to
// 1.0 at 100%, and a shallower ramp from 0 reaching 0.5 at the 80% mark.
func ExperienceScore(candidateMonths, requiredMonths float64) float64 {
	if requiredMonths <= 0 {
		return 1
	}
	ratio := candidateMonths / requiredMonths
	switch {
	case ratio >= 1:
		return 1
	case ratio >= 0.8:
		return 0.5 + (ratio-0.8)*2.5
	default:
		return ratio * 0.625
	}
}

// descriptionScore tokenizes the requirement description into words longer
// than 2 chars and returns the fraction found in the union of the candidate's
// experience titles and descriptions, skills, tools, and education.
func descriptionScore(c domain.CandidateExtraction, description string) float64 {
	reqTokens := make(map[string]struct{})
	for _, tok := range textx.Tokens(description) {
		if len([]rune(tok)) > 2 {
			reqTokens[tok] = struct{}{}
		}
	}
	if len(reqTokens) == 0 {
		return 0
	}

	var parts []string
	for _, e := range c.Experiences {
		parts = append(parts, e.Title, e.Description)
	}
	parts = append(parts, c.Skills...)
	parts = append(parts, c.Tools...)
	parts = append(parts, c.Education...)

	union := make(map[string]struct{})
	for _, tok := range textx.Tokens(strings.Join(parts, " ")) {
		union[tok] = struct{}{}
	}

	found := 0
	for tok := range reqTokens {
		if _, ok := union[tok]; ok {
			found++
		}
	}
	return float64(found) / float64(len(reqTokens))
}
