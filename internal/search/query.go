// Package search translates requirement sets into index queries and re-ranks
// the hits with the engine's own scoring model.
package search

import (
	"math"
	"strings"
	"unicode"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/match"
	"github.com/fairyhunter13/cv-ranking-engine/pkg/textx"
)

// Clause boosts. Explicit skill requirements weigh more than tool or
// education terms; description keywords are spread across fields at
// decreasing boosts.
const (
	boostSkills     = 3.0
	boostTools      = 2.5
	boostEducation  = 1.5
	boostLanguages  = 1.0
	boostKwSkills   = 3.0
	boostKwTools    = 2.5
	boostKwExpTitle = 2.0
	boostKwExpDesc  = 1.5
)

// experienceFloorRatio is the soft floor on the experience range filter: the
// index only excludes candidates below 80% of the required years, the exact
// cutoff is left to local scoring.
const experienceFloorRatio = 0.8

// BuildQuery renders the bool query for req. Every category contributes
// optional boosted should clauses; experience_years contributes a mandatory
// range filter; at least one should clause must match.
func BuildQuery(req domain.RequirementSet) map[string]any {
	should := make([]map[string]any, 0)
	for _, s := range req.Skills {
		should = append(should, fuzzyMatch("skills", s, boostSkills))
	}
	for _, s := range req.Tools {
		should = append(should, fuzzyMatch("tools", s, boostTools))
	}
	for _, s := range req.Education {
		should = append(should, fuzzyMatch("education", s, boostEducation))
	}
	for _, s := range req.Languages {
		should = append(should, fuzzyMatch("languages", s, boostLanguages))
	}
	for _, kw := range DescriptionKeywords(req.Description) {
		should = append(should,
			fuzzyMatch("skills", kw, boostKwSkills),
			fuzzyMatch("tools", kw, boostKwTools),
			nestedMatch("experiences", "experiences.title", kw, boostKwExpTitle),
			nestedMatch("experiences", "experiences.description", kw, boostKwExpDesc),
		)
	}

	must := make([]map[string]any, 0, 1)
	if req.ExperienceYears > 0 {
		must = append(must, map[string]any{
			"range": map[string]any{
				"experience_years": map[string]any{
					"gte": math.Ceil(req.ExperienceYears * experienceFloorRatio),
				},
			},
		})
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"must":                 must,
				"minimum_should_match": 1,
			},
		},
	}
}

func fuzzyMatch(field, value string, boost float64) map[string]any {
	return map[string]any{
		"match": map[string]any{
			field: map[string]any{
				"query":     value,
				"fuzziness": "AUTO",
				"boost":     boost,
			},
		},
	}
}

func nestedMatch(path, field, value string, boost float64) map[string]any {
	return map[string]any{
		"nested": map[string]any{
			"path":       path,
			"score_mode": "avg",
			"query":      fuzzyMatch(field, value, boost),
		},
	}
}

// DescriptionKeywords reduces a free-text description to a deduplicated
// keyword set: lowercased, accent-stripped, alphanumeric-only words longer
// than 2 chars, stop-words removed. Order of first occurrence is preserved.
func DescriptionKeywords(description string) []string {
	if strings.TrimSpace(description) == "" {
		return nil
	}
	lowered := textx.StripAccents(strings.ToLower(description))
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) <= 2 || match.IsStopWord(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
