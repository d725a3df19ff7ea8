package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/api/http"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/api/http/handlers"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/classifier"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/config"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/events"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/observability"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/persistence"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/repository"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/service"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/taxonomy"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redis *persistence.Redis
	if cfg.Triage.QueueBackend == config.QueueBackendRedis {
		redis, err = persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()
	}

	ticketRepo, historyRepo, requestRepo := buildRepositories(pg)
	queue := buildQueue(cfg, redis)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg.Notification)
	worker.StartNotificationWorker(notifications)

	tax := taxonomy.LoadOrEmpty(cfg.Taxonomy.Path, logger)
	categorizer := classifier.New(tax, classifier.NewOllamaClient(cfg.Ollama), logger.Named("classifier"))

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	triageService := service.NewTriageService(service.TriageDependencies{
		Classifier:          categorizer,
		Tickets:             ticketService,
		RequestRepo:         requestRepo,
		SimilarityThreshold: cfg.Triage.SimilarityThreshold,
		Outcomes:            metrics,
		Logger:              logger.Named("triage"),
	})
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		RequestRepo:          requestRepo,
		Queue:                queue,
		Recorder:             metrics,
		Logger:               logger,
		MinDescriptionLength: cfg.Triage.MinDescriptionLength,
		MaxDescriptionLength: cfg.Triage.MaxDescriptionLength,
	})

	if _, err := submissionService.Resume(ctx, resumableStates(cfg)...); err != nil {
		logger.Warn("resume pending triage requests failed", zap.Error(err))
	}

	pool := worker.NewPool(queue, triageService.HandleTask, cfg.Triage.Workers, logger.Named("worker"))
	poolDone := make(chan error, 1)
	go func() {
		poolDone <- pool.Run(ctx)
	}()

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName:        cfg.App.Name,
		BodyLimit:      cfg.App.BodyLimitBytes,
		RequestTimeout: cfg.App.RequestTimeout(),
		Logger:         logger,
		Metrics:        metrics,
	}, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		System:   handlers.NewSystemHandler(cfg.App.Name, cfg.App.Version, metrics),
		Feedback: handlers.NewFeedbackHandler(submissionService),
		Tickets:  handlers.NewTicketsHandler(ticketService),
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("queue_backend", cfg.Triage.QueueBackend),
			zap.Bool("postgres", pg.Enabled()),
			zap.Int("categories", tax.Len()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	// Stop intake first, then let workers drain what was already accepted.
	_ = app.Shutdown()
	_ = queue.Close()
	if err := <-poolDone; err != nil {
		logger.Warn("worker pool stopped with error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildRepositories(pg *persistence.Postgres) (repository.TicketRepository, repository.TicketHistoryRepository, repository.TriageRequestRepository) {
	if !pg.Enabled() {
		return repository.NewMemoryTicketRepository(),
			repository.NewMemoryTicketHistoryRepository(),
			repository.NewMemoryTriageRequestRepository()
	}
	pool := pg.PoolHandle()
	return repository.NewTicketRepository(pool),
		repository.NewTicketHistoryRepository(pool),
		repository.NewTriageRequestRepository(pool)
}

func buildQueue(cfg *config.Config, redis *persistence.Redis) worker.Queue {
	if cfg.Triage.QueueBackend == config.QueueBackendRedis && redis.Enabled() {
		return worker.NewRedisQueue(redis.Client, cfg.Triage.QueueKey)
	}
	return worker.NewMemoryQueue(cfg.Triage.QueueSize)
}

// resumableStates names the request states whose task cannot still be on the
// queue after a restart. Redis keeps received tasks, so only the ones a dead
// worker had already popped are replayed.
func resumableStates(cfg *config.Config) []domain.RequestState {
	if cfg.Triage.QueueBackend == config.QueueBackendRedis {
		return []domain.RequestState{domain.RequestStateProcessing}
	}
	return []domain.RequestState{domain.RequestStateReceived, domain.RequestStateProcessing}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
