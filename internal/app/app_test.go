package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shaiso/Courier/internal/callback"
	"github.com/shaiso/Courier/internal/config"
	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/queue"
	"github.com/shaiso/Courier/internal/telemetry"
)

func memoryConfig() config.Config {
	return config.Config{
		QueueBackend:         config.BackendMemory,
		DefaultTimeoutMs:     1000,
		DefaultMaxRetries:    2,
		DefaultRetryDelayMs:  100,
		CallbackTimeoutMs:    1000,
		CallbackMaxRetries:   1,
		CallbackRetryDelayMs: 0,
		ParallelConcurrency:  3,
		PollInterval:         10 * time.Millisecond,
		LeaseTTL:             time.Second,
		ShutdownTimeout:      time.Second,
	}
}

func TestOpen_Memory(t *testing.T) {
	logger := telemetry.NewLogger(io.Discard, "text", telemetry.ParseLevel("ERROR"))

	deps, err := Open(context.Background(), memoryConfig(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer deps.Close()

	if _, ok := deps.Backend.(*queue.Memory); !ok {
		t.Errorf("expected memory backend, got %T", deps.Backend)
	}
	if deps.MQ != nil {
		t.Error("mq must stay disabled")
	}
	if deps.Notifier(logger) != nil {
		t.Error("notifier must be nil without mq")
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.QueueBackend = "kafka"

	if _, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewWorkerService_EnqueueOnly(t *testing.T) {
	logger := telemetry.NewLogger(io.Discard, "text", telemetry.ParseLevel("ERROR"))
	deps, err := Open(context.Background(), memoryConfig(), logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer deps.Close()

	svc := NewWorkerService(memoryConfig(), deps, false, logger)
	defer svc.Close(context.Background())

	task := &domain.Task{ID: "t1", Method: "GET", URL: "http://a", CallbackURL: "http://b"}
	if _, err := svc.AddTask(context.Background(), task); err != nil {
		t.Fatalf("add: %v", err)
	}
	if job := svc.GetJob(context.Background(), "t1"); job == nil || job.Queue != domain.QueueParallel {
		t.Errorf("job should be in parallel queue, got %+v", job)
	}
}

func TestCallbackRetryDelay(t *testing.T) {
	cfg := memoryConfig()

	cfg.CallbackRetryDelayMs = 0
	if got := callbackRetryDelay(cfg); got != callback.NoRetryDelay {
		t.Errorf("zero delay must mean no pause, got %v", got)
	}

	cfg.CallbackRetryDelayMs = 250
	if got := callbackRetryDelay(cfg); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
}
