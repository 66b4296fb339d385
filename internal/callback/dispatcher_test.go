package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Courier/internal/domain"
)

// recordSleep — SleepFunc, запоминающий запрошенные задержки.
type recordSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordSleep) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sleeper := &recordSleep{}
	d := New(Config{MaxAttempts: 3, RetryDelay: 250 * time.Millisecond, Sleep: sleeper.sleep})

	d.Send(context.Background(), server.URL, &domain.CallbackPayload{TaskID: "t1", Status: domain.CallbackStatusCompleted})

	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	// Фиксированная задержка, без множителя
	if len(sleeper.delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %v", sleeper.delays)
	}
	for _, delay := range sleeper.delays {
		if delay != 250*time.Millisecond {
			t.Errorf("expected fixed 250ms delay, got %v", delay)
		}
	}
}

func TestDispatcher_NoRetryDelay(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tests := []struct {
		name       string
		retryDelay time.Duration
		want       time.Duration
	}{
		{"no pause", NoRetryDelay, 0},
		{"default", 0, DefaultRetryDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &recordSleep{}
			d := New(Config{MaxAttempts: 2, RetryDelay: tt.retryDelay, Sleep: sleeper.sleep})

			d.Send(context.Background(), server.URL, &domain.CallbackPayload{TaskID: "t0", Status: domain.CallbackStatusFailed})

			if len(sleeper.delays) != 1 || sleeper.delays[0] != tt.want {
				t.Errorf("expected a single %v pause, got %v", tt.want, sleeper.delays)
			}
		})
	}
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	sleeper := &recordSleep{}
	d := New(Config{MaxAttempts: 4, Sleep: sleeper.sleep})

	d.Send(context.Background(), server.URL, &domain.CallbackPayload{TaskID: "t2", Status: domain.CallbackStatusFailed})

	if got := hits.Load(); got != 4 {
		t.Errorf("expected 4 attempts, got %d", got)
	}
	if len(sleeper.delays) != 3 {
		t.Errorf("expected no sleep after the last attempt, got %d sleeps", len(sleeper.delays))
	}
}

func TestDispatcher_PostsJSON(t *testing.T) {
	var (
		method      string
		contentType string
		received    map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := New(Config{})
	d.Send(context.Background(), server.URL, &domain.CallbackPayload{
		TaskID:        "t3",
		Status:        domain.CallbackStatusFailed,
		Attempts:      1,
		ExecutionTime: 12,
		Timestamp:     "2024-01-01T00:00:00.000Z",
		Error:         &domain.CallbackError{Message: "not found", Status: 404},
	})

	if method != http.MethodPost {
		t.Errorf("expected POST, got %s", method)
	}
	if contentType != "application/json" {
		t.Errorf("expected application/json, got %s", contentType)
	}
	if received["taskId"] != "t3" || received["status"] != "failed" {
		t.Errorf("unexpected payload: %v", received)
	}
	if _, ok := received["response"]; ok {
		t.Error("failed payload must not carry response")
	}
	errObj, ok := received["error"].(map[string]any)
	if !ok || errObj["status"] != float64(404) {
		t.Errorf("expected error object with status 404, got %v", received["error"])
	}
}

func TestDispatcher_UnreachableDoesNotPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := server.URL
	server.Close()

	sleeper := &recordSleep{}
	d := New(Config{MaxAttempts: 2, Sleep: sleeper.sleep})

	d.Send(context.Background(), addr, &domain.CallbackPayload{TaskID: "t4"})

	if len(sleeper.delays) != 1 {
		t.Errorf("expected one sleep between two attempts, got %d", len(sleeper.delays))
	}
}

func TestDispatcher_StopsOnCancelledContext(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	d := New(Config{
		MaxAttempts: 5,
		Sleep: func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		},
	})

	d.Send(ctx, server.URL, &domain.CallbackPayload{TaskID: "t5"})

	if got := hits.Load(); got != 1 {
		t.Errorf("expected a single attempt before cancellation, got %d", got)
	}
}
