package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	adobs "github.com/fairyhunter13/cv-ranking-engine/internal/adapter/observability"
	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/observability"
	"github.com/fairyhunter13/cv-ranking-engine/internal/verify"
	"github.com/fairyhunter13/cv-ranking-engine/pkg/textx"
)

// AnalysisInput is one document to analyze. Label is the caller's
// correlation id; batch output order is not the input order, so callers that
// need stable order re-sort by Label.
type AnalysisInput struct {
	Text         string
	Requirements domain.RequirementSet
	Label        string
	Priority     int
}

// Options tunes the pipeline. Zero values fall back to defaults suited to
// free-tier LLM rate limits.
type Options struct {
	// MaxConcurrent bounds simultaneous LLM calls process-wide.
	MaxConcurrent int
	// BatchSize bounds burst load per batch; independent of (and smaller
	// than) MaxConcurrent's purpose, batches run strictly sequentially.
	BatchSize   int
	BatchPause  time.Duration
	AnalysisTTL time.Duration
	// MaxPromptChars truncates document text before the LLM call.
	MaxPromptChars int
}

// Pipeline orchestrates text extraction, LLM invocation, verification, and
// caching. Construct with New and inject everywhere; all state is held on the
// instance so tests can run isolated pipelines.
type Pipeline struct {
	extractor domain.TextExtractor
	ai        domain.AIClient
	texts     domain.Store
	analyses  domain.Store
	adm       *Admission
	opts      Options
}

// New constructs a Pipeline and starts its admission workers.
func New(extractor domain.TextExtractor, ai domain.AIClient, texts, analyses domain.Store, opts Options) *Pipeline {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 3
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 2
	}
	if opts.BatchPause <= 0 {
		opts.BatchPause = time.Second
	}
	if opts.MaxPromptChars < 1 {
		opts.MaxPromptChars = 24000
	}
	return &Pipeline{
		extractor: extractor,
		ai:        ai,
		texts:     texts,
		analyses:  analyses,
		adm:       NewAdmission(opts.MaxConcurrent),
		opts:      opts,
	}
}

// Close stops the admission workers after draining queued tasks.
func (p *Pipeline) Close() { p.adm.Close() }

// ExtractText returns the document's plain text, content-addressed by path
// and mtime and cached indefinitely until invalidated.
func (p *Pipeline) ExtractText(ctx domain.Context, path string) (string, error) {
	key := textKey(path)
	if b, ok, err := p.texts.Get(ctx, key); err == nil && ok {
		adobs.CacheOpsTotal.WithLabelValues("text", "hit").Inc()
		return string(b), nil
	}
	adobs.CacheOpsTotal.WithLabelValues("text", "miss").Inc()

	start := time.Now()
	text, err := p.extractor.ExtractPath(ctx, filepath.Base(path), path)
	adobs.ObserveExternalCall("text_extractor", start)
	if err != nil {
		return "", fmt.Errorf("op=pipeline.ExtractText: %w: %v", domain.ErrExtraction, err)
	}
	text = textx.SanitizeText(text)
	if text == "" {
		return "", fmt.Errorf("op=pipeline.ExtractText: %w: empty content from %s", domain.ErrExtraction, filepath.Base(path))
	}
	if err := p.texts.Set(ctx, key, []byte(text), 0); err != nil {
		observability.LoggerFromContext(ctx).Warn("text cache write failed", slog.Any("error", err))
	}
	return text, nil
}

// InvalidateText drops the cached text for path (source-file cleanup hook).
func (p *Pipeline) InvalidateText(ctx domain.Context, path string) {
	_ = p.texts.Delete(ctx, textKey(path))
}

// Analyze produces a verified CandidateExtraction for (text, requirements).
// Cache hits return without any external call. On failure the first return
// value is a well-formed degraded record (Error populated, everything else
// zero-filled) and the error wraps ErrAnalysis; batch callers keep the record
// and drop the error so one bad document never aborts a batch.
func (p *Pipeline) Analyze(ctx domain.Context, text string, req domain.RequirementSet, label string) (domain.CandidateExtraction, error) {
	return p.analyze(ctx, AnalysisInput{Text: text, Requirements: req, Label: label, Priority: PriorityInteractive})
}

func (p *Pipeline) analyze(ctx domain.Context, in AnalysisInput) (domain.CandidateExtraction, error) {
	key := analysisKey(in.Text, in.Requirements)
	if rec, ok := p.cachedAnalysis(ctx, key); ok {
		adobs.CacheOpsTotal.WithLabelValues("analysis", "hit").Inc()
		adobs.AnalysesTotal.WithLabelValues("cached").Inc()
		rec.Label = in.Label
		return rec, nil
	}
	adobs.CacheOpsTotal.WithLabelValues("analysis", "miss").Inc()

	type outcome struct {
		rec domain.CandidateExtraction
		err error
	}
	ch := make(chan outcome, 1)
	if !p.adm.Submit(in.Priority, func() {
		rec, err := p.runAnalysis(ctx, in, key)
		ch <- outcome{rec: rec, err: err}
	}) {
		return failedAnalysis(in.Label, fmt.Errorf("pipeline closed"))
	}
	select {
	case out := <-ch:
		return out.rec, out.err
	case <-ctx.Done():
		return failedAnalysis(in.Label, ctx.Err())
	}
}

// AnalyzeBatch analyzes all inputs, cache hits first, then uncached inputs in
// fixed-size strictly sequential batches with a pause in between. The result
// always has one entry per input; failed documents are degraded records.
func (p *Pipeline) AnalyzeBatch(ctx domain.Context, inputs []AnalysisInput) []domain.CandidateExtraction {
	results := make([]domain.CandidateExtraction, 0, len(inputs))
	uncached := make([]AnalysisInput, 0, len(inputs))
	for _, in := range inputs {
		if rec, ok := p.cachedAnalysis(ctx, analysisKey(in.Text, in.Requirements)); ok {
			adobs.CacheOpsTotal.WithLabelValues("analysis", "hit").Inc()
			adobs.AnalysesTotal.WithLabelValues("cached").Inc()
			rec.Label = in.Label
			results = append(results, rec)
			continue
		}
		adobs.CacheOpsTotal.WithLabelValues("analysis", "miss").Inc()
		uncached = append(uncached, in)
	}

	for start := 0; start < len(uncached); start += p.opts.BatchSize {
		end := start + p.opts.BatchSize
		if end > len(uncached) {
			end = len(uncached)
		}
		batch := uncached[start:end]
		out := make([]domain.CandidateExtraction, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, in := range batch {
			g.Go(func() error {
				rec, _ := p.analyze(gctx, in)
				out[i] = rec
				return nil
			})
		}
		_ = g.Wait()
		results = append(results, out...)

		if end < len(uncached) {
			select {
			case <-time.After(p.opts.BatchPause):
			case <-ctx.Done():
				for _, in := range uncached[end:] {
					results = append(results, verify.Degraded(in.Label, ctx.Err()))
				}
				return results
			}
		}
	}
	return results
}

func (p *Pipeline) runAnalysis(ctx domain.Context, in AnalysisInput, key string) (domain.CandidateExtraction, error) {
	start := time.Now()
	lg := observability.LoggerFromContext(ctx).With(
		slog.String("task_id", ulid.Make().String()),
		slog.String("label", in.Label),
	)

	text := in.Text
	if len(text) > p.opts.MaxPromptChars {
		text = text[:p.opts.MaxPromptChars]
		lg.Debug("document truncated for prompt", slog.Int("max_chars", p.opts.MaxPromptChars))
	}
	callStart := time.Now()
	raw, err := p.ai.ExtractCandidate(ctx, text, CondenseRequirements(in.Requirements), knownContacts(in.Text))
	adobs.ObserveExternalCall("llm", callStart)
	if err != nil {
		lg.Warn("llm extraction failed", slog.Any("error", err))
		return failedAnalysis(in.Label, err)
	}

	rawRec, err := verify.ParseRaw(raw)
	if err != nil {
		lg.Warn("llm response unparsable", slog.Any("error", err))
		return failedAnalysis(in.Label, err)
	}
	rec := verify.Normalize(observability.ContextWithLogger(ctx, lg), rawRec, in.Text)
	rec.Label = in.Label
	if rec.Email == "" && rec.PhoneNumber == "" {
		known := knownContacts(in.Text)
		rec.Email, rec.PhoneNumber = known.Email, known.PhoneNumber
	}

	if b, err := json.Marshal(rec); err == nil {
		if err := p.analyses.Set(ctx, key, b, p.opts.AnalysisTTL); err != nil {
			lg.Warn("analysis cache write failed", slog.Any("error", err))
		}
	}
	adobs.AnalysesTotal.WithLabelValues("completed").Inc()
	adobs.AnalysisDuration.Observe(time.Since(start).Seconds())
	lg.Info("analysis completed",
		slog.Int("skills", len(rec.Skills)),
		slog.Int("tools", len(rec.Tools)),
		slog.Duration("elapsed", time.Since(start)))
	return rec, nil
}

func (p *Pipeline) cachedAnalysis(ctx domain.Context, key string) (domain.CandidateExtraction, bool) {
	b, ok, err := p.analyses.Get(ctx, key)
	if err != nil || !ok {
		return domain.CandidateExtraction{}, false
	}
	var rec domain.CandidateExtraction
	if err := json.Unmarshal(b, &rec); err != nil {
		// A corrupt entry is treated as a miss; the rewrite will heal it.
		_ = p.analyses.Delete(ctx, key)
		return domain.CandidateExtraction{}, false
	}
	return rec, true
}

func failedAnalysis(label string, cause error) (domain.CandidateExtraction, error) {
	adobs.AnalysesTotal.WithLabelValues("degraded").Inc()
	return verify.Degraded(label, cause), fmt.Errorf("op=pipeline.analyze: %w: %v", domain.ErrAnalysis, cause)
}

func analysisKey(text string, req domain.RequirementSet) string {
	b, _ := json.Marshal(req)
	return hashKey("analysis", text, string(b))
}

func textKey(path string) string {
	if st, err := os.Stat(path); err == nil {
		return hashKey("text", path, st.ModTime().UTC().Format(time.RFC3339Nano))
	}
	return hashKey("text", path)
}

// CondenseRequirements renders a compact requirement summary for the LLM
// prompt so the model tailors the extraction toward the role.
func CondenseRequirements(req domain.RequirementSet) string {
	var parts []string
	if len(req.Skills) > 0 {
		parts = append(parts, "skills: "+strings.Join(req.Skills, ", "))
	}
	if len(req.Tools) > 0 {
		parts = append(parts, "tools: "+strings.Join(req.Tools, ", "))
	}
	if req.ExperienceYears > 0 {
		parts = append(parts, fmt.Sprintf("experience: %.1f years", req.ExperienceYears))
	}
	if len(req.Education) > 0 {
		parts = append(parts, "education: "+strings.Join(req.Education, ", "))
	}
	if len(req.Languages) > 0 {
		parts = append(parts, "languages: "+strings.Join(req.Languages, ", "))
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		if len(d) > 400 {
			d = d[:400]
		}
		parts = append(parts, "description: "+d)
	}
	return strings.Join(parts, "; ")
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?[0-9][0-9 ()\-.]{7,}[0-9]`)
)

// knownContacts pre-extracts contact fields so the model does not have to
// re-derive (or invent) them.
func knownContacts(text string) domain.ContactInfo {
	return domain.ContactInfo{
		Email:       emailRe.FindString(text),
		PhoneNumber: phoneRe.FindString(text),
	}
}
