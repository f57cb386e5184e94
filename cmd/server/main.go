// Command server starts the CV ranking engine HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ai "github.com/fairyhunter13/cv-ranking-engine/internal/adapter/ai"
	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/ai/stub"
	rediscache "github.com/fairyhunter13/cv-ranking-engine/internal/adapter/cache/redis"
	httpserver "github.com/fairyhunter13/cv-ranking-engine/internal/adapter/httpserver"
	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/index/elastic"
	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/observability"
	localext "github.com/fairyhunter13/cv-ranking-engine/internal/adapter/textextractor/local"
	tikaext "github.com/fairyhunter13/cv-ranking-engine/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/cv-ranking-engine/internal/app"
	"github.com/fairyhunter13/cv-ranking-engine/internal/config"
	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/match"
	"github.com/fairyhunter13/cv-ranking-engine/internal/pipeline"
	"github.com/fairyhunter13/cv-ranking-engine/internal/search"
	"github.com/fairyhunter13/cv-ranking-engine/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Cache stores: Redis when configured, otherwise in-process.
	var texts, analyses domain.Store
	if cfg.RedisAddr != "" {
		texts = rediscache.NewFromAddr(cfg.RedisAddr, "text")
		analyses = rediscache.NewFromAddr(cfg.RedisAddr, "analysis")
		slog.Info("using redis cache", slog.String("addr", cfg.RedisAddr))
	} else {
		texts = pipeline.NewMemoryStore()
		analyses = pipeline.NewMemoryStore()
	}

	// Text extractor: Tika server when configured, local PDF/text otherwise.
	var extractor domain.TextExtractor
	if cfg.TikaURL != "" {
		extractor = tikaext.New(cfg.TikaURL)
		slog.Info("using tika extractor", slog.String("url", cfg.TikaURL))
	} else {
		extractor = localext.New()
	}

	// LLM client: deterministic stub when no API key is configured.
	var aicl domain.AIClient
	if cfg.OpenRouterAPIKey != "" {
		aicl = ai.New(cfg)
	} else {
		aicl = stub.New()
		slog.Warn("no OPENROUTER_API_KEY set, using stub AI client")
	}

	pipe := pipeline.New(extractor, aicl, texts, analyses, pipeline.Options{
		MaxConcurrent: cfg.MaxConcurrentAnalyses,
		BatchSize:     cfg.AnalysisBatchSize,
		BatchPause:    cfg.AnalysisBatchPause,
		AnalysisTTL:   cfg.AnalysisCacheTTL,
	})
	defer pipe.Close()

	scorer := match.NewScorer()
	index := elastic.New(cfg.ElasticURL, cfg.ElasticIndex)
	searchSvc := search.NewService(index, scorer, cfg.SearchFetchSize, cfg.SearchResultSize)

	srv := httpserver.NewServer(cfg,
		usecase.NewCompareService(pipe, scorer),
		usecase.NewIndexService(pipe, searchSvc),
		searchSvc,
	)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
