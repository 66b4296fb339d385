package worker

import (
	"net/http"
	"testing"
	"time"

	"github.com/shaiso/Courier/internal/faults"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name     string
		err      faults.NormalizedError
		attempts int
		max      int
		want     bool
	}{
		{"rate limited", faults.NormalizedError{Status: 429}, 1, 3, true},
		{"server error", faults.NormalizedError{Status: 500}, 1, 3, true},
		{"bad gateway", faults.NormalizedError{Status: 502}, 2, 3, true},
		{"upper bound", faults.NormalizedError{Status: 599}, 1, 3, true},
		{"600 is not server error", faults.NormalizedError{Status: 600}, 1, 3, false},
		{"not found", faults.NormalizedError{Status: 404}, 1, 3, false},
		{"bad request", faults.NormalizedError{Status: 400}, 1, 3, false},
		{"method not allowed", faults.NormalizedError{Status: http.StatusMethodNotAllowed}, 1, 3, false},
		{"limit reached", faults.NormalizedError{Status: 503}, 3, 3, false},
		{"limit exceeded", faults.NormalizedError{Status: 429}, 4, 3, false},
		{"conn refused in message", faults.NormalizedError{Status: 400, Message: "connect ECONNREFUSED 127.0.0.1:80"}, 1, 3, true},
		{"timeout code", faults.NormalizedError{Status: 400, Code: faults.CodeTimedOut}, 1, 3, true},
		{"dns failure", faults.NormalizedError{Status: 400, Message: "getaddrinfo ENOTFOUND example.invalid"}, 1, 3, true},
		{"conn reset is terminal", faults.NormalizedError{Status: 400, Code: faults.CodeConnReset}, 1, 3, false},
		{"unknown", faults.NormalizedError{Status: 0, Message: faults.UnknownErrorMessage}, 1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err, tt.attempts, tt.max); got != tt.want {
				t.Errorf("ShouldRetry(%+v, %d, %d) = %v, want %v", tt.err, tt.attempts, tt.max, got, tt.want)
			}
		})
	}
}

func TestBackoffDelay_Linear(t *testing.T) {
	base := 200 * time.Millisecond
	for attempts, want := range map[int]time.Duration{
		1: 200 * time.Millisecond,
		2: 400 * time.Millisecond,
		5: time.Second,
	} {
		if got := BackoffDelay(base, attempts); got != want {
			t.Errorf("BackoffDelay(%v, %d) = %v, want %v", base, attempts, got, want)
		}
	}
}
