// Package domain defines the core entities, error taxonomy, and ports of the
// CV ranking engine.
package domain

import (
	"context"
	"errors"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation failed")
	ErrExtraction      = errors.New("extraction failed")
	ErrAnalysis        = errors.New("analysis failed")
	ErrSearch          = errors.New("search failed")
	ErrInternal        = errors.New("internal error")
)

// Experience is one position claimed by a candidate. Duration is the raw
// "MM/YYYY - MM/YYYY" string (the end bound may be a present-tense marker);
// DurationInMonths is derived from it during normalization when absent.
type Experience struct {
	Title            string `json:"title"`
	Company          string `json:"company"`
	Description      string `json:"description"`
	Duration         string `json:"duration"`
	DurationInMonths int    `json:"duration_in_months"`
}

// CandidateExtraction is the structured record derived from one CV document.
// After normalization every field is present (zero-filled, never nil slices).
// Records are cached by content hash and never mutated after creation.
type CandidateExtraction struct {
	Summary         string       `json:"summary"`
	Email           string       `json:"email"`
	PhoneNumber     string       `json:"phone_number"`
	Skills          []string     `json:"skills"`
	Tools           []string     `json:"tools"`
	Education       []string     `json:"education"`
	Languages       []string     `json:"languages"`
	Experiences     []Experience `json:"experiences"`
	ExperienceYears float64      `json:"experience_years"`
	Certifications  []string     `json:"certifications"`
	Projects        []string     `json:"projects"`
	// Error is non-empty on degraded records produced when analysis of a
	// document failed; siblings in a batch are unaffected.
	Error string `json:"error,omitempty"`
	// Label is the caller-chosen correlation id (typically the file name).
	Label string `json:"label,omitempty"`
}

// MatchResult is the per-(candidate, requirement) scoring outcome. Pointer
// fields are nil when the corresponding requirement dimension was absent;
// absent dimensions are excluded from TotalScore, not zero-filled.
type MatchResult struct {
	MatchingSkills        []string           `json:"matching_skills"`
	MatchingTools         []string           `json:"matching_tools"`
	MissingSkills         []string           `json:"missing_skills"`
	MissingTools          []string           `json:"missing_tools"`
	SkillMatchPercent     *int               `json:"skill_match_percent"`
	ToolMatchPercent      *int               `json:"tool_match_percent"`
	DescriptionMatchScore float64            `json:"description_match_score"`
	ComponentScores       map[string]float64 `json:"component_scores"`
	TotalScore            *float64           `json:"total_score"`
}

// Hit is a single result returned by the external index.
type Hit struct {
	ID        string
	Score     float64
	Candidate CandidateExtraction
}

// RankedCandidate is the ranked-output element: the extraction and match
// fields flattened onto one object, plus the index's own relevance score
// normalized to 0-100 relative to the best hit.
type RankedCandidate struct {
	CandidateExtraction
	MatchResult
	FileName           string   `json:"fileName"`
	ElasticsearchScore *float64 `json:"elasticsearch_score,omitempty"`
}

// ContactInfo carries contact fields already known before the LLM call so the
// model does not have to re-derive them.
type ContactInfo struct {
	Email       string
	PhoneNumber string
}

// Ports (external collaborators, interfaces only)

// TextExtractor extracts plain text from a document at path.
// Implementations may call external services (e.g. Tika) or local libraries.
type TextExtractor interface {
	ExtractPath(ctx Context, fileName, path string) (string, error)
}

// AIClient invokes the external language model. ExtractCandidate returns the
// raw model output; it may be wrapped in surrounding prose, and the caller is
// responsible for extracting and validating the JSON payload.
type AIClient interface {
	ExtractCandidate(ctx Context, text, requirementSummary string, known ContactInfo) (string, error)
}

// SearchIndex is the external full-text index. Implementations own the wire
// protocol; the engine owns index-existence checks through EnsureIndex.
type SearchIndex interface {
	EnsureIndex(ctx Context) error
	IndexCandidate(ctx Context, id string, c CandidateExtraction) error
	Search(ctx Context, query map[string]any, size int) ([]Hit, error)
}

// Context is an alias so adapters and engines share the std context type
// without the domain package naming it everywhere.
type Context = context.Context
