// Package ai implements the LLM extraction client backed by an
// OpenAI-compatible chat completions API (OpenRouter by default).
package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"log/slog"

	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/cv-ranking-engine/internal/config"
	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
)

const maxCompletionTokens = 2048

// Client implements domain.AIClient against an OpenRouter-compatible
// chat completions endpoint.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	counter *tokencount.Counter
}

// New constructs a client with the configured timeout and a traced transport.
func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   cfg.AITimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		counter: tokencount.NewCounter(),
	}
}

func (c *Client) getBackoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// ExtractCandidate asks the model to pull a structured candidate record out of
// the document text. The response is returned verbatim; parsing and the
// hallucination guard live downstream.
func (c *Client) ExtractCandidate(ctx domain.Context, text, requirementSummary string, known domain.ContactInfo) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY missing", domain.ErrInvalidArgument)
	}

	if c.cfg.MaxPromptTokens > 0 {
		text = c.counter.Truncate(text, c.cfg.OpenRouterModel, c.cfg.MaxPromptTokens)
	}
	userPrompt := BuildUserPrompt(text, requirementSummary, known)
	promptTokens := c.counter.CountTokens(systemPrompt+userPrompt, c.cfg.OpenRouterModel)
	slog.Debug("calling chat completions",
		slog.String("model", c.cfg.OpenRouterModel),
		slog.Int("prompt_tokens", promptTokens))

	body := map[string]any{
		"model":       c.cfg.OpenRouterModel,
		"temperature": 0.1,
		"max_tokens":  maxCompletionTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, _ := json.Marshal(body)

	var out struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	endpoint := c.cfg.OpenRouterBaseURL + "/chat/completions"
	op := func() error {
		// Recreate the request each attempt to avoid reusing consumed bodies.
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
		r.Header.Set("Content-Type", "application/json")
		if c.cfg.OpenRouterReferer != "" {
			r.Header.Set("HTTP-Referer", c.cfg.OpenRouterReferer)
		}
		if c.cfg.OpenRouterTitle != "" {
			r.Header.Set("X-Title", c.cfg.OpenRouterTitle)
		}

		resp, err := c.hc.Do(r)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			slog.Warn("llm provider rate limited",
				slog.Int("status", resp.StatusCode),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			return fmt.Errorf("rate limited: 429")
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			slog.Warn("llm provider 4xx",
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.OpenRouterModel),
				slog.String("endpoint", endpoint),
				slog.String("body", snippet(bodyBytes, 512)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			slog.Error("llm provider non-2xx",
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.OpenRouterModel),
				slog.String("body", snippet(bodyBytes, 512)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			slog.Error("llm provider decode error",
				slog.String("model", c.cfg.OpenRouterModel),
				slog.Any("error", err))
			return err
		}
		return nil
	}

	expo := c.getBackoffConfig()
	start := time.Now()
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		return "", fmt.Errorf("op=ai.extract: %w: %v", domain.ErrAnalysis, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=ai.extract: %w: %v", domain.ErrAnalysis, errors.New("empty choices"))
	}

	content := out.Choices[0].Message.Content
	slog.Info("chat completion returned",
		slog.String("requested_model", c.cfg.OpenRouterModel),
		slog.String("actual_model", out.Model),
		slog.Int("completion_tokens", c.counter.CountTokens(content, c.cfg.OpenRouterModel)),
		slog.Duration("took", time.Since(start)))
	return content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
