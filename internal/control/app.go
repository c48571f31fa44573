// Package control wires configuration into a runnable pipeline.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/genpost/internal/core/config"
	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/generation"
	"github.com/vietddude/genpost/internal/health"
	"github.com/vietddude/genpost/internal/infra/imagegen/fake"
	"github.com/vietddude/genpost/internal/infra/imagegen/gemini"
	"github.com/vietddude/genpost/internal/infra/imagegen/openai"
	"github.com/vietddude/genpost/internal/infra/objectstore"
	redisclient "github.com/vietddude/genpost/internal/infra/redis"
	"github.com/vietddude/genpost/internal/infra/storage"
	"github.com/vietddude/genpost/internal/infra/storage/memory"
	"github.com/vietddude/genpost/internal/infra/storage/postgres"
	"github.com/vietddude/genpost/internal/metrics"
	"github.com/vietddude/genpost/internal/pipeline"
	"github.com/vietddude/genpost/internal/publish"
	"github.com/vietddude/genpost/internal/recovery"
	"github.com/vietddude/genpost/internal/staging"
)

// App holds every pipeline component built from one configuration.
type App struct {
	cfg          *config.AppConfig
	orch         *pipeline.Orchestrator
	batch        *pipeline.BatchRunner
	replay       *recovery.Handler
	failedRepo   storage.FailedItemRepository
	postRepo     storage.PostRepository
	sweeper      *staging.Sweeper
	healthMon    *health.Monitor
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// Status is a snapshot of the stores.
type Status struct {
	Posts   int
	Pending []*domain.FailedItem
}

// NewApp creates an App with all dependencies initialized.
func NewApp(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	app := &App{cfg: cfg, log: log}

	// 1. Storage
	store := memory.NewMemoryStorage()
	app.postRepo = memory.NewPostRepo(store)
	app.failedRepo = memory.NewFailedRepo(store)

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		app.postRepo = postgres.NewPostRepo(db)
		app.failedRepo = postgres.NewFailedItemRepo(db)
		log.Info("Using PostgreSQL storage")
	} else {
		log.Info("Using Memory storage")
	}

	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		app.redisClient = client
		app.failedRepo = redisclient.NewFailedItemRepo(client, cfg.Redis.TTL)
		log.Info("Using Redis dead-letter queue")
	}

	// 2. Publishing
	var media publish.MediaUploader
	if cfg.Media.Endpoint != "" {
		s3, err := objectstore.NewS3Store(cfg.Media.S3Config)
		if err != nil {
			app.closeStores()
			return nil, err
		}
		media = s3
	} else {
		log.Warn("No media endpoint configured, keeping media in memory")
		media = objectstore.NewMemoryStore()
	}
	pub := publish.NewPublisher(media, publish.NewPostRecords(app.postRepo), publish.Config{
		UploadTimeout: cfg.Publish.UploadTimeout,
		RecordTimeout: cfg.Publish.RecordTimeout,
	}, log)

	// 3. Generation
	gen, err := NewGenerator(ctx, cfg.Generation, cfg.Retry.AttemptTimeout)
	if err != nil {
		app.closeStores()
		return nil, err
	}
	ctrl := generation.NewController(gen, generation.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Schedule: generation.Schedule{
			BaseDelay:  cfg.Retry.BaseDelay,
			Multiplier: cfg.Retry.Multiplier,
			Jitter:     cfg.Retry.Jitter,
		},
		AttemptTimeout: cfg.Retry.AttemptTimeout,
	}, metricsObserver(), log)

	// 4. Pipeline
	stager := staging.NewStager(cfg.Staging.Dir, staging.NewHTTPFetcher(cfg.Staging.DownloadTimeout), log)
	strategy := &recovery.ExponentialBackoff{
		InitialDelay: cfg.Replay.InitialDelay,
		MaxDelay:     cfg.Replay.MaxDelay,
		MaxAttempts:  cfg.Replay.MaxAttempts,
	}
	recorder := recovery.NewHandler(app.failedRepo, nil, strategy, log)
	app.orch = pipeline.NewOrchestrator(ctrl, stager, pub, recorder, log)
	app.batch = pipeline.NewBatchRunner(app.orch, log)
	app.replay = recovery.NewHandler(app.failedRepo, app.orch.WithoutRecorder(), strategy, log)
	app.sweeper = staging.NewSweeper(cfg.Staging.Dir, cfg.Staging.MaxAge, log)

	// 5. Health
	app.healthMon = health.NewMonitor(app.failedRepo, health.DefaultThresholds)
	if app.db != nil {
		app.healthMon.AddCheck("postgres", app.db.Health)
	}
	if app.redisClient != nil {
		app.healthMon.AddCheck("redis", app.redisClient.Health)
	}
	app.healthServer = health.NewServer(app.healthMon, cfg.Server.Port)

	return app, nil
}

// NewGenerator builds the configured generation client.
func NewGenerator(ctx context.Context, cfg config.GenerationConfig, timeout time.Duration) (generation.Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err := openai.New(openai.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Size:    cfg.Size,
			Quality: cfg.Quality,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderGemini:
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			AspectRatio: cfg.AspectRatio,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderFake:
		return fake.New(fake.Config{FailFirst: cfg.FailFirst}), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

func metricsObserver() generation.Observer {
	return generation.Observer{
		OnAttempt: func(a domain.Attempt) {
			result := "success"
			if a.Err != nil {
				result = generation.Classify(a.Err).String()
			}
			metrics.GenerationAttempts.WithLabelValues(result).Inc()
		},
		OnWait: func(attempt int, d time.Duration) {
			metrics.BackoffWaits.Inc()
			metrics.BackoffDelay.Observe(d.Seconds())
		},
	}
}

// Start launches background workers: the staging sweeper and the DB pool collector.
func (a *App) Start(ctx context.Context) {
	go a.sweeper.Start(ctx)
	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}
}

// Serve starts the health and metrics server.
func (a *App) Serve() {
	go func() {
		a.log.Info("Health server listening", "port", a.cfg.Server.Port)
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()
}

// Stop shuts the server down and closes stores.
func (a *App) Stop(ctx context.Context) error {
	if err := a.healthServer.Stop(ctx); err != nil {
		a.log.Warn("Failed to stop health server", "error", err)
	}
	a.closeStores()
	return nil
}

func (a *App) closeStores() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}

// RunOne runs a single item.
func (a *App) RunOne(ctx context.Context, item domain.BatchItem) domain.Outcome {
	return a.orch.Execute(ctx, item.Request, item.Caption)
}

// RunBatch runs items concurrently.
func (a *App) RunBatch(ctx context.Context, items []domain.BatchItem, concurrency int) domain.BatchResult {
	if concurrency <= 0 {
		concurrency = a.cfg.Batch.Concurrency
	}
	return a.batch.Run(ctx, items, concurrency)
}

// Replay re-runs due failed items.
func (a *App) Replay(ctx context.Context, limit int) (recovery.Summary, error) {
	return a.replay.Drain(ctx, limit)
}

// Status reports post and dead-letter counts.
func (a *App) Status(ctx context.Context) (Status, error) {
	posts, err := a.postRepo.Count(ctx)
	if err != nil {
		return Status{}, err
	}
	pending, err := a.failedRepo.GetAll(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Posts: posts, Pending: pending}, nil
}
