package janitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Courier/internal/domain"
)

type fakeCleaner struct {
	mu     sync.Mutex
	calls  [][]domain.JobStatus
	result domain.OperationResult
	ticked chan struct{}
}

func (f *fakeCleaner) ClearQueue(_ context.Context, statuses []domain.JobStatus) domain.OperationResult {
	f.mu.Lock()
	f.calls = append(f.calls, statuses)
	f.mu.Unlock()

	if f.ticked != nil {
		select {
		case f.ticked <- struct{}{}:
		default:
		}
	}
	return f.result
}

func TestNew_InvalidSchedule(t *testing.T) {
	if _, err := New(Config{Cleaner: &fakeCleaner{}, Schedule: "not cron"}); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestNextRun(t *testing.T) {
	tests := []struct {
		schedule string
		from     time.Time
		want     time.Time
	}{
		{"0 * * * *", time.Date(2025, 1, 1, 10, 15, 0, 0, time.UTC), time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)},
		{"*/15 * * * *", time.Date(2025, 1, 1, 10, 15, 0, 0, time.UTC), time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"@daily", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			j, err := New(Config{Cleaner: &fakeCleaner{}, Schedule: tt.schedule})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := j.NextRun(tt.from); !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTick_DefaultStatuses(t *testing.T) {
	cleaner := &fakeCleaner{result: domain.OperationResult{Success: true}}
	j, err := New(Config{Cleaner: cleaner, Schedule: "@hourly"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res := j.Tick(context.Background()); !res.Success {
		t.Errorf("expected success, got %+v", res)
	}

	if len(cleaner.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(cleaner.calls))
	}
	got := cleaner.calls[0]
	if len(got) != 2 || got[0] != domain.JobStatusCompleted || got[1] != domain.JobStatusFailed {
		t.Errorf("expected completed+failed, got %v", got)
	}
}

func TestTick_FailureIsReported(t *testing.T) {
	cleaner := &fakeCleaner{result: domain.OperationResult{Message: "Failed to clear queues", Error: "boom"}}
	j, _ := New(Config{Cleaner: cleaner, Schedule: "@hourly"})

	if res := j.Tick(context.Background()); res.Success || res.Error != "boom" {
		t.Errorf("failure should be passed through, got %+v", res)
	}
}

func TestRun_TicksAndStops(t *testing.T) {
	cleaner := &fakeCleaner{
		result: domain.OperationResult{Success: true},
		ticked: make(chan struct{}, 1),
	}

	// Часы за мгновение до границы минуты: первый тик почти сразу.
	base := time.Date(2025, 1, 1, 10, 0, 59, 950_000_000, time.UTC)
	started := time.Now()
	j, err := New(Config{
		Cleaner:  cleaner,
		Schedule: "* * * * *",
		Now:      func() time.Time { return base.Add(time.Since(started)) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	select {
	case <-cleaner.ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not tick")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
