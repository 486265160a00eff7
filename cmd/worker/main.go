package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/projectcompass/compass/internal/adapters/http"
	"github.com/projectcompass/compass/internal/bootstrap"
	"github.com/projectcompass/compass/internal/config"
	"github.com/projectcompass/compass/internal/observability/logging"
	"github.com/projectcompass/compass/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.Init("worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app.ProcessUC.OnNotification(func(kind string, sent bool) {
		workerMetrics.RecordNotification("worker", kind, sent)
	})
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.Handle("/statusz", httpadapter.PipelineStatusHandler(app.Collector))
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: mux,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeInquiryReceived(ctx, func(handlerCtx context.Context, inquiryID string) error {
		workerMetrics.StartInquiry()
		start := time.Now()

		processCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
		defer cancel()

		processErr := app.ProcessUC.ProcessByID(processCtx, inquiryID)
		workerMetrics.FinishInquiry("worker", time.Since(start), processErr)
		if inq, ok := app.ProcessUC.Tracked(inquiryID); ok {
			workerMetrics.ObserveQueueLag("worker", start.Sub(inq.CreatedAt))
			workerMetrics.RecordOutcome("worker", string(inq.Category), string(inq.Priority))
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
