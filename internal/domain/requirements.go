package domain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// RequirementSet is the immutable hiring criteria a candidate is scored
// against. All slice fields hold deduplicated, trimmed, non-empty strings.
type RequirementSet struct {
	Description     string   `json:"description"`
	Skills          []string `json:"skills"`
	Tools           []string `json:"tools"`
	ExperienceYears float64  `json:"experience_years" validate:"gte=0"`
	Education       []string `json:"education"`
	Languages       []string `json:"languages"`
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// NewRequirementSet trims and deduplicates all list fields, then validates
// the result. Malformed input (negative experience) yields ErrValidation.
func NewRequirementSet(description string, skills, tools, education, languages []string, experienceYears float64) (RequirementSet, error) {
	rs := RequirementSet{
		Description:     strings.TrimSpace(description),
		Skills:          dedupeTrimmed(skills),
		Tools:           dedupeTrimmed(tools),
		Education:       dedupeTrimmed(education),
		Languages:       dedupeTrimmed(languages),
		ExperienceYears: experienceYears,
	}
	if err := getValidator().Struct(rs); err != nil {
		return RequirementSet{}, fmt.Errorf("op=domain.NewRequirementSet: %w: %v", ErrValidation, err)
	}
	return rs, nil
}

// IsEmpty reports whether no requirement dimension is present at all.
func (r RequirementSet) IsEmpty() bool {
	return r.Description == "" && len(r.Skills) == 0 && len(r.Tools) == 0 &&
		len(r.Education) == 0 && len(r.Languages) == 0 && r.ExperienceYears <= 0
}

func dedupeTrimmed(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
