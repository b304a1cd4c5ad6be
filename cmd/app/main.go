package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"social-autopost/internal/config"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/adapter"
	aiAdapters "social-autopost/internal/infra/adapters/ai"
	"social-autopost/internal/infra/adapters/twitter"
	"social-autopost/internal/infra/api"
	pg "social-autopost/internal/infra/db/postgres"
	"social-autopost/internal/infra/logging"
	"social-autopost/internal/infra/metrics"
	"social-autopost/internal/infra/queue"
	red "social-autopost/internal/infra/redis"
	"social-autopost/internal/infra/sched"
	"social-autopost/internal/infra/worker"
	"social-autopost/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	txm := pg.NewTxManager(pool)
	postRepo := pg.NewPostRepo(pool)
	slotRepo := pg.NewScheduleSlotRepo(pool)
	promptRepo := pg.NewPromptRepo(pool)
	categoryRepo := pg.NewCategoryRepo(pool)

	// ---- AI adapter (gemini primary, openai fallback, noop degradation) ----
	ai := buildAIAdapter(ctx, cfg, logger)

	// ---- Publisher ----
	var publisher adapter.Publisher
	if token := strings.TrimSpace(cfg.Twitter.AccessToken); token == "" || strings.HasPrefix(token, "your-") {
		logger.Warn().Msg("twitter access token not configured; publishing disabled")
		publisher = twitter.NewNoopPublisher()
	} else {
		publisher, err = twitter.NewClient(token, cfg.Twitter.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("twitter client")
		}
	}

	// ---- Queue ----
	jobQueue := queue.New(redisClient, queue.Options{
		MaxAttempts:  cfg.Scheduler.MaxAttempts,
		RetryBackoff: cfg.Scheduler.RetryBackoff,
	}, logger)

	// ---- Use cases ----
	materializer := usecase.NewMaterializer(postRepo, promptRepo, txm, logger)
	generator := usecase.NewContentGenerator(ai, cfg.AI, cfg.Generation, logger)
	executor := usecase.NewPostExecutor(postRepo, categoryRepo, promptRepo, generator, publisher, locker, cfg.Generation, logger)
	autoFiller := usecase.NewAutoFiller(slotRepo, materializer, &cfg.Scheduler, logger)
	categoryUC := usecase.NewCategoryUseCase(categoryRepo)
	promptUC := usecase.NewPromptUseCase(promptRepo)
	slotUC := usecase.NewSlotUseCase(slotRepo)
	postUC := usecase.NewPostUseCase(postRepo, jobQueue)

	// ---- Queue consumers ----
	jobQueue.Register(model.QueuePostExecutor, model.JobTypeExecutePost, func(ctx context.Context, job *model.Job) error {
		var payload model.ExecutePostPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode execute-post payload: %w", err)
		}
		return executor.Execute(ctx, payload.PostID)
	})
	jobQueue.Register(model.QueueAutoFill, model.JobTypeCheckAndFill, func(ctx context.Context, _ *model.Job) error {
		return autoFiller.FillUpcoming(ctx)
	})

	executorPool := worker.NewPool(cfg.Scheduler.Workers, logger)
	executorPool.Start(ctx)
	defer executorPool.Stop()
	go jobQueue.Consume(ctx, model.QueuePostExecutor, executorPool)

	fillPool := worker.NewPool(1, logger)
	fillPool.Start(ctx)
	defer fillPool.Stop()
	go jobQueue.Consume(ctx, model.QueueAutoFill, fillPool)

	// ---- Scheduler ----
	driver := sched.NewDriver(slotRepo, postRepo, materializer, jobQueue, &cfg.Scheduler, logger)
	if err := driver.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("scheduler")
	}

	// ---- Admin HTTP server ----
	auth := api.NewAuthManager(cfg.Admin.APIKey, cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	srv := api.NewServer(categoryUC, promptUC, slotUC, postUC, auth, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	driver.Stop(shutdownCtx)
	_ = server.Shutdown(shutdownCtx)
	cancel()
}

// buildAIAdapter wires the configured providers behind a model-routing
// adapter. Missing keys degrade to a noop that fails jobs fast instead of
// blocking startup.
func buildAIAdapter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) adapter.TextGenerator {
	providers := map[string]adapter.TextGenerator{}
	defaultProvider := ""

	if cfg.AI.GeminiKey != "" {
		gem, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.PrimaryModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		providers["gemini"] = gem
		defaultProvider = "gemini"
		logger.Info().Str("model", cfg.AI.PrimaryModel).Msg("gemini adapter configured")
	}
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, cfg.AI.FallbackModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		providers["openai"] = oa
		if defaultProvider == "" {
			defaultProvider = "openai"
		}
		logger.Info().Str("model", cfg.AI.FallbackModel).Msg("openai adapter configured")
	}
	if len(providers) == 0 {
		logger.Warn().Msg("no AI provider configured; generation disabled")
		return aiAdapters.NewNoopAdapter()
	}
	return aiAdapters.NewMultiAdapter(defaultProvider, providers, nil)
}
