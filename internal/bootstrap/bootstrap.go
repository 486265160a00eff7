package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/projectcompass/compass/internal/config"
	"github.com/projectcompass/compass/internal/core/classify"
	"github.com/projectcompass/compass/internal/core/monitor"
	"github.com/projectcompass/compass/internal/core/ports"
	"github.com/projectcompass/compass/internal/core/priority"
	"github.com/projectcompass/compass/internal/core/routing"
	"github.com/projectcompass/compass/internal/core/usecase"
	"github.com/projectcompass/compass/internal/infrastructure/extractor/htmltext"
	"github.com/projectcompass/compass/internal/infrastructure/notifier/webhook"
	"github.com/projectcompass/compass/internal/infrastructure/queue/nats"
	"github.com/projectcompass/compass/internal/infrastructure/repository/postgres"
	"github.com/projectcompass/compass/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.InquiryRepository
	Collector *monitor.Collector
	IngestUC  ports.InquiryIngestor
	ProcessUC *usecase.ProcessInquiryUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewInquiryRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	vendors := postgres.NewVendorRepository(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	directory := routing.DefaultDirectory()
	if cfg.StaffDirectoryPath != "" {
		directory, err = routing.LoadDirectory(cfg.StaffDirectoryPath)
		if err != nil {
			return nil, fmt.Errorf("load staff directory: %w", err)
		}
	}
	router := routing.New(directory, vendors, nil, cfg.LoadSpreadProbability, logger)

	notifier := webhook.New(webhook.Options{
		Endpoint:           cfg.WebhookURL,
		Timeout:            time.Duration(cfg.WebhookTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	}, logger)

	collector := monitor.NewCollector(nil)

	ingestUC := usecase.NewIngestInquiryUseCase(repo, htmltext.NewExtractor(), queue)
	processUC := usecase.NewProcessInquiryUseCase(
		repo,
		vendors,
		classify.New(),
		priority.NewEngine(nil),
		router,
		notifier,
		collector,
		logger,
		cfg.TrackerCapacity,
	)

	return &App{
		Config: cfg,

		Queue:     queue,
		Repo:      repo,
		Collector: collector,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
