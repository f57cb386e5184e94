package verify

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
)

// nowFunc is swapped in tests so present-tense durations are deterministic.
var nowFunc = time.Now

// RawExtraction mirrors the JSON shape the model is asked for, before any
// field has been trusted. Absent fields simply unmarshal to zero values; the
// numeric fields tolerate the model emitting fractions.
type RawExtraction struct {
	Summary         string          `json:"summary"`
	Email           string          `json:"email"`
	PhoneNumber     string          `json:"phone_number"`
	Skills          []string        `json:"skills"`
	Tools           []string        `json:"tools"`
	Education       []string        `json:"education"`
	Languages       []string        `json:"languages"`
	Experiences     []RawExperience `json:"experiences"`
	ExperienceYears float64         `json:"experience_years"`
	Certifications  []string        `json:"certifications"`
	Projects        []string        `json:"projects"`
}

// RawExperience is one claimed position. DurationInMonths is a pointer so a
// missing value is distinguishable from an explicit zero.
type RawExperience struct {
	Title            string `json:"title"`
	Company          string `json:"company"`
	Description      string `json:"description"`
	Duration         string `json:"duration"`
	DurationInMonths *int   `json:"duration_in_months"`
}

// presentMarkers are accepted as the open end of a duration range.
var presentMarkers = map[string]struct{}{
	"present": {}, "now": {}, "current": {}, "today": {}, "ongoing": {},
}

// Normalize applies the hallucination guard to skills and tools, derives
// missing experience durations, and fills every remaining field with its
// type's zero value so downstream scoring can index unconditionally.
func Normalize(ctx context.Context, raw RawExtraction, text string) domain.CandidateExtraction {
	out := domain.CandidateExtraction{
		Summary:         strings.TrimSpace(raw.Summary),
		Email:           strings.TrimSpace(raw.Email),
		PhoneNumber:     strings.TrimSpace(raw.PhoneNumber),
		Skills:          ItemsInText(ctx, raw.Skills, text),
		Tools:           ItemsInText(ctx, raw.Tools, text),
		Education:       nonNil(raw.Education),
		Languages:       nonNil(raw.Languages),
		ExperienceYears: raw.ExperienceYears,
		Certifications:  nonNil(raw.Certifications),
		Projects:        nonNil(raw.Projects),
	}
	if out.ExperienceYears < 0 {
		out.ExperienceYears = 0
	}
	out.Experiences = make([]domain.Experience, 0, len(raw.Experiences))
	for _, e := range raw.Experiences {
		exp := domain.Experience{
			Title:       strings.TrimSpace(e.Title),
			Company:     strings.TrimSpace(e.Company),
			Description: strings.TrimSpace(e.Description),
			Duration:    strings.TrimSpace(e.Duration),
		}
		if e.DurationInMonths != nil && *e.DurationInMonths >= 0 {
			exp.DurationInMonths = *e.DurationInMonths
		} else {
			exp.DurationInMonths = DurationToMonths(exp.Duration)
		}
		out.Experiences = append(out.Experiences, exp)
	}
	return out
}

// Degraded returns the well-formed default record a caller receives when a
// document's analysis failed. One bad document never aborts a batch.
func Degraded(label string, cause error) domain.CandidateExtraction {
	out := domain.CandidateExtraction{
		Skills:         []string{},
		Tools:          []string{},
		Education:      []string{},
		Languages:      []string{},
		Experiences:    []domain.Experience{},
		Certifications: []string{},
		Projects:       []string{},
		Label:          label,
	}
	if cause != nil {
		out.Error = cause.Error()
	}
	return out
}

// DurationToMonths parses a duration formatted "MM/YYYY - MM/YYYY", where the
// second bound may be a present-tense marker, and returns the whole-month
// difference. Unparsable durations normalize to 0, never an error.
func DurationToMonths(duration string) int {
	parts := strings.Split(duration, "-")
	if len(parts) != 2 {
		return 0
	}
	fromM, fromY, ok := parseMonthYear(parts[0])
	if !ok {
		return 0
	}
	toM, toY, ok := parseMonthYear(parts[1])
	if !ok {
		return 0
	}
	months := (toY-fromY)*12 + (toM - fromM)
	if months < 0 {
		return 0
	}
	return months
}

// parseMonthYear parses "MM/YYYY" or a present marker (meaning now).
func parseMonthYear(s string) (month, year int, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, present := presentMarkers[s]; present {
		now := nowFunc()
		return int(now.Month()), now.Year(), true
	}
	my := strings.Split(s, "/")
	if len(my) != 2 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(my[0]))
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(strings.TrimSpace(my[1]))
	if err != nil || y < 1000 {
		return 0, 0, false
	}
	return m, y, true
}

func nonNil(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
