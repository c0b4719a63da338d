// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghostwriter-workers/internal/common/camunda"
	"ghostwriter-workers/internal/common/clock"
	"ghostwriter-workers/internal/common/config"
	"ghostwriter-workers/internal/common/database"
	"ghostwriter-workers/internal/common/export"
	"ghostwriter-workers/internal/common/genai"
	"ghostwriter-workers/internal/common/logger"
	"ghostwriter-workers/internal/common/observability"
	"ghostwriter-workers/internal/common/ratelimit"
	"ghostwriter-workers/internal/common/session"
	"ghostwriter-workers/internal/common/validation"
	"ghostwriter-workers/internal/common/websearch"
	"ghostwriter-workers/internal/originality"
	"ghostwriter-workers/internal/regeneration"
	"ghostwriter-workers/internal/rewrite"
	"ghostwriter-workers/pkg/registry"

	co "ghostwriter-workers/internal/workers/ghostwriter/check-originality"
	dr "ghostwriter-workers/internal/workers/ghostwriter/decide-regeneration"
	ec "ghostwriter-workers/internal/workers/ghostwriter/export-content"
	gc "ghostwriter-workers/internal/workers/ghostwriter/generate-content"
	rs "ghostwriter-workers/internal/workers/ghostwriter/reset-session"
	rc "ghostwriter-workers/internal/workers/ghostwriter/rewrite-content"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})

	if err := run(cfg, log); err != nil {
		zapLog.Fatal("worker manager failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	log.Info("starting worker manager", map[string]interface{}{
		"environment": cfg.App.Environment,
		"broker":      cfg.Camunda.BrokerAddress,
	})

	obs := observability.New("ghostwriter-workers")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, cfg.Camunda.BrokerAddress)
	if err != nil {
		return err
	}
	defer zeebe.Close()
	log.Info("zeebe client connected", nil)

	// --- Redis ---
	rdb := database.NewRedis(cfg.Redis)
	defer rdb.Close()
	if err := rdb.PingWithRetry(ctx, 10, 2*time.Second); err != nil {
		return err
	}
	log.Info("redis connected", map[string]interface{}{"address": cfg.Redis.Address})

	// --- Domain services ---
	deps, err := buildDependencies(cfg, rdb, log)
	if err != nil {
		return err
	}

	workers := startWorkers(cfg, zeebe, deps, obs, log)
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newServerMux(zeebe, rdb),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("health/metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped", nil)
	return nil
}

type jobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type dependencies struct {
	generator genai.Generator
	searcher  websearch.Searcher
	store     session.Store
	limiter   *ratelimit.Limiter
	rewriter  *rewrite.Service
	renderer  *export.Renderer
	validator *validation.Validator
	clock     clock.Clock
}

func buildDependencies(cfg *config.Config, rdb *database.RedisClient, log logger.Logger) (*dependencies, error) {
	genCfg := cfg.APIs.GenAI
	generator, err := genai.NewGenerator(genai.Config{
		Provider:    genCfg.Provider,
		Model:       genCfg.Model,
		APIKey:      genCfg.APIKey,
		BaseURL:     genCfg.BaseURL,
		Timeout:     config.GetDuration(genCfg.Timeout),
		MaxRetries:  genCfg.MaxRetries,
		Temperature: genCfg.Temperature,
		MaxTokens:   genCfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	searchCfg := cfg.APIs.WebSearch
	var searcher websearch.Searcher = websearch.NewGoogleSearcher(websearch.Config{
		BaseURL:        searchCfg.BaseURL,
		APIKey:         searchCfg.APIKey,
		EngineID:       searchCfg.EngineID,
		Timeout:        config.GetDuration(searchCfg.Timeout),
		MaxRetries:     searchCfg.MaxRetries,
		MaxResults:     searchCfg.MaxResults,
		MaxQueryLength: searchCfg.MaxQueryLength,
	})
	if searchCfg.CacheTTL > 0 {
		searcher = websearch.NewCachedSearcher(searcher, rdb.Client, searchCfg.CacheTTL, log)
	}

	thesaurus := rewrite.DefaultThesaurus()
	if path := cfg.Rewrite.ThesaurusPath; path != "" {
		thesaurus, err = rewrite.LoadThesaurus(path)
		if err != nil {
			return nil, fmt.Errorf("load thesaurus: %w", err)
		}
	}

	clk := clock.Real()
	deps := &dependencies{
		generator: generator,
		searcher:  searcher,
		store:     session.NewRedisStore(rdb.Client, cfg.Session.TTL),
		rewriter: rewrite.NewService(
			rewrite.NewGeneratorRewriter(generator),
			rewrite.NewSynonymRewriter(thesaurus),
		),
		renderer:  export.NewRenderer(cfg.Export.FileBaseName),
		validator: validation.NewValidator(registry.Default().InputSchemas()),
		clock:     clk,
	}
	if cfg.RateLimit.Enabled {
		deps.limiter = ratelimit.NewLimiter(rdb.Client, clk, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}
	return deps, nil
}

func startWorkers(
	cfg *config.Config,
	zeebe *camunda.Client,
	deps *dependencies,
	obs *observability.Observability,
	log logger.Logger,
) []*camunda.CamundaWorker {
	var workers []*camunda.CamundaWorker
	register := func(taskType string, h jobHandler, err error) {
		if err != nil {
			log.Error("worker not registered", map[string]interface{}{
				"taskType": taskType,
				"error":    err.Error(),
			})
			return
		}
		w := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), h.Handle, obs, log)
		if w != nil {
			workers = append(workers, w)
		}
	}

	// A disabled limiter stays a nil interface, not a nil *Limiter.
	var genLimiter gc.RateLimiter
	var resetLimiter rs.WindowResetter
	if deps.limiter != nil {
		genLimiter = deps.limiter
		resetLimiter = deps.limiter
	}

	hgc, err := gc.NewHandler(gc.NewConfig(cfg), gc.Dependencies{
		Generator: deps.generator,
		Store:     deps.store,
		Limiter:   genLimiter,
		Validator: deps.validator,
		Clock:     deps.clock,
		Logger:    log,
	})
	register(gc.TaskType, hgc, err)

	hco, err := co.NewHandler(co.NewConfig(cfg), co.Dependencies{
		Searcher: deps.searcher,
		Scorer: originality.NewScorer(originality.Options{
			Cap:                  cfg.Originality.Cap,
			LongSnippetThreshold: cfg.Originality.LongSnippetThreshold,
			PenaltyPerMatch:      cfg.Originality.PenaltyPerMatch,
		}),
		Store:     deps.store,
		Validator: deps.validator,
		Logger:    log,
	})
	register(co.TaskType, hco, err)

	hdr, err := dr.NewHandler(dr.NewConfig(cfg), dr.Dependencies{
		Policy:    regeneration.NewPolicy(cfg.Originality.Threshold),
		Validator: deps.validator,
		Logger:    log,
	})
	register(dr.TaskType, hdr, err)

	hrc, err := rc.NewHandler(rc.NewConfig(cfg), rc.Dependencies{
		Rewriter:  deps.rewriter,
		Store:     deps.store,
		Validator: deps.validator,
		Clock:     deps.clock,
		Logger:    log,
	})
	register(rc.TaskType, hrc, err)

	hec, err := ec.NewHandler(ec.NewConfig(cfg), ec.Dependencies{
		Renderer:      deps.renderer,
		Store:         deps.store,
		DefaultFormat: cfg.Export.DefaultFormat,
		Validator:     deps.validator,
		Logger:        log,
	})
	register(ec.TaskType, hec, err)

	hrs, err := rs.NewHandler(rs.NewConfig(cfg), rs.Dependencies{
		Store:     deps.store,
		Limiter:   resetLimiter,
		Validator: deps.validator,
		Clock:     deps.clock,
		Logger:    log,
	})
	register(rs.TaskType, hrs, err)

	return workers
}
