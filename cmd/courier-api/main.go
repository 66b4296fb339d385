// Courier API — принимает task и администрирует очереди.
//
// API только ставит job в очередь; выполняет их courier-worker.
// С QUEUE_BACKEND=memory очередь живёт в памяти процесса, поэтому
// пулы запускаются прямо здесь.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Courier/internal/api"
	"github.com/shaiso/Courier/internal/app"
	"github.com/shaiso/Courier/internal/config"
	"github.com/shaiso/Courier/internal/tasks"
	"github.com/shaiso/Courier/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting courier-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open queue backend", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	standalone := cfg.QueueBackend == config.BackendMemory
	queueSvc := app.NewWorkerService(cfg, deps, standalone, logger)
	if standalone {
		if err := queueSvc.Start(ctx); err != nil {
			logger.Error("failed to start workers", "error", err)
			os.Exit(1)
		}
	}

	handler := api.NewHandler(api.Config{
		Tasks:  tasks.New(tasks.Config{Queue: queueSvc, Logger: logger}),
		Logger: logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	handler.Mount(mux)

	server := &http.Server{
		Addr:    cfg.APIAddr(),
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if err := queueSvc.Close(shutdownCtx); err != nil {
		logger.Error("failed to close queue service", "error", err)
	}

	logger.Info("stopped")
}
