package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/cv-ranking-engine/internal/config"
	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/search"
	"github.com/fairyhunter13/cv-ranking-engine/internal/usecase"
)

const maxBodyBytes = 10 << 20

// Server aggregates handler dependencies.
type Server struct {
	Cfg     config.Config
	Compare *usecase.CompareService
	Index   *usecase.IndexService
	Search  *search.Service
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, compare *usecase.CompareService, index *usecase.IndexService, searchSvc *search.Service) *Server {
	return &Server{Cfg: cfg, Compare: compare, Index: index, Search: searchSvc}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// requirementsDTO is the wire shape of a requirement set.
type requirementsDTO struct {
	Description     string   `json:"description" validate:"max=10000"`
	Skills          []string `json:"skills" validate:"max=100"`
	Tools           []string `json:"tools" validate:"max=100"`
	ExperienceYears float64  `json:"experience_years" validate:"gte=0,lte=60"`
	Education       []string `json:"education" validate:"max=20"`
	Languages       []string `json:"languages" validate:"max=20"`
}

func (d requirementsDTO) toDomain() (domain.RequirementSet, error) {
	return domain.NewRequirementSet(d.Description, d.Skills, d.Tools, d.Education, d.Languages, d.ExperienceYears)
}

type documentDTO struct {
	Label string `json:"label" validate:"required,max=255"`
	Text  string `json:"text" validate:"required"`
}

// decodeAndValidate parses the JSON body into req and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidArgument, err)
	}
	if err := getValidator().Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// CompareHandler analyzes the posted documents and returns them ranked
// against the posted requirements.
func (s *Server) CompareHandler() http.HandlerFunc {
	type compareRequest struct {
		Requirements requirementsDTO `json:"requirements"`
		Documents    []documentDTO   `json:"documents" validate:"required,min=1,max=50,dive"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req compareRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		rs, err := req.Requirements.toDomain()
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		docs := make([]usecase.Document, 0, len(req.Documents))
		for _, d := range req.Documents {
			docs = append(docs, usecase.Document{Label: d.Label, Text: d.Text})
		}
		ranked, err := s.Compare.Compare(r.Context(), rs, docs)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": ranked})
	}
}

// SearchHandler queries the index for the posted requirements and returns the
// re-ranked top candidates.
func (s *Server) SearchHandler() http.HandlerFunc {
	type searchRequest struct {
		Requirements requirementsDTO `json:"requirements"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		rs, err := req.Requirements.toDomain()
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if rs.IsEmpty() {
			writeError(w, r, fmt.Errorf("%w: requirements must not be empty", domain.ErrInvalidArgument), nil)
			return
		}
		ranked, err := s.Search.SearchCandidates(r.Context(), rs)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": ranked})
	}
}

// IndexHandler analyzes one document and stores the extraction in the index.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req documentDTO
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		ext, err := s.Index.IndexDocument(r.Context(), usecase.Document{Label: req.Label, Text: req.Text})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidate": ext})
	}
}

// HealthHandler reports process liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
