// Courier Worker — выполняет task из очередей.
//
// Worker:
//   - Берёт job из parallel (N слотов) и sequential (1 слот) очередей
//   - Выполняет HTTP-вызов с повторами по линейному backoff
//   - Отправляет результат на callback URL
//   - Просыпается по уведомлениям RabbitMQ, иначе опрашивает backend
//   - Периодически очищает завершённые job (CLEANUP_SCHEDULE)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Courier/internal/app"
	"github.com/shaiso/Courier/internal/config"
	"github.com/shaiso/Courier/internal/janitor"
	"github.com/shaiso/Courier/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting courier-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.QueueBackend == config.BackendMemory {
		logger.Warn("in-memory queue is not shared with courier-api, nothing will be executed from it")
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open queue backend", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	svc := app.NewWorkerService(cfg, deps, true, logger)
	if err := svc.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	if cfg.CleanupSchedule != "" {
		j, err := janitor.New(janitor.Config{
			Cleaner:  svc,
			Schedule: cfg.CleanupSchedule,
			Logger:   logger,
		})
		if err != nil {
			logger.Error("invalid cleanup schedule", "error", err)
			os.Exit(1)
		}
		go j.Run(ctx)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.WorkerAddr(), Handler: mux}
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := svc.Close(shutdownCtx); err != nil {
		logger.Error("worker did not stop cleanly", "error", err)
	}
	server.Shutdown(shutdownCtx)

	logger.Info("courier-worker stopped")
}
