package faults

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassify_Aggregate_ReturnsFirst(t *testing.T) {
	agg := &AggregateFault{Faults: []error{
		&GenericFault{Message: "first", Status: http.StatusBadGateway},
		&GenericFault{Message: "second", Status: http.StatusNotFound},
	}}

	got := Classify(agg)

	if got.Message != "first" {
		t.Errorf("expected message 'first', got %q", got.Message)
	}
	if got.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", got.Status)
	}
}

func TestClassify_ErrorsJoin_ReturnsFirst(t *testing.T) {
	joined := errors.Join(
		&TransportFault{Message: "conn refused", Code: CodeConnRefused},
		errors.New("other"),
	)

	got := Classify(joined)

	if !got.FromTransport {
		t.Error("expected transport classification of the first fault")
	}
	if got.Code != CodeConnRefused {
		t.Errorf("expected code %s, got %s", CodeConnRefused, got.Code)
	}
}

func TestClassify_EmptyAggregate(t *testing.T) {
	agg := &AggregateFault{}

	got := Classify(agg)

	if got.Message != UnknownErrorMessage {
		t.Errorf("expected %q, got %q", UnknownErrorMessage, got.Message)
	}
	if got.Status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got.Status)
	}
}

func TestClassify_Transport(t *testing.T) {
	tests := []struct {
		name        string
		fault       *TransportFault
		wantMessage string
		wantStatus  int
		wantData    bool
	}{
		{
			name: "message from body",
			fault: &TransportFault{
				Message: "Request failed with status code 404",
				Status:  http.StatusNotFound,
				Body:    map[string]any{"message": "user not found"},
			},
			wantMessage: "user not found",
			wantStatus:  http.StatusNotFound,
			wantData:    true,
		},
		{
			name: "body without message",
			fault: &TransportFault{
				Message: "Request failed with status code 400",
				Status:  http.StatusBadRequest,
				Body:    map[string]any{"error": "bad"},
			},
			wantMessage: "Request failed with status code 400",
			wantStatus:  http.StatusBadRequest,
			wantData:    true,
		},
		{
			name: "non-string message in body",
			fault: &TransportFault{
				Message: "boom",
				Status:  http.StatusConflict,
				Body:    map[string]any{"message": 42},
			},
			wantMessage: "boom",
			wantStatus:  http.StatusConflict,
			wantData:    true,
		},
		{
			name:        "no response",
			fault:       &TransportFault{Message: "dial tcp: connection refused", Code: CodeConnRefused},
			wantMessage: "dial tcp: connection refused",
			wantStatus:  http.StatusInternalServerError,
		},
		{
			name:        "string body is not data",
			fault:       &TransportFault{Message: "teapot", Status: http.StatusTeapot, Body: "plain text"},
			wantMessage: "teapot",
			wantStatus:  http.StatusTeapot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.fault)

			if got.Message != tt.wantMessage {
				t.Errorf("message: expected %q, got %q", tt.wantMessage, got.Message)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status: expected %d, got %d", tt.wantStatus, got.Status)
			}
			if !got.FromTransport {
				t.Error("expected FromTransport=true")
			}
			if (got.Data != nil) != tt.wantData {
				t.Errorf("data presence: expected %v, got %v", tt.wantData, got.Data)
			}
		})
	}
}

func TestClassify_Generic(t *testing.T) {
	got := Classify(&GenericFault{Message: "unsupported", Status: http.StatusMethodNotAllowed})
	if got.Status != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", got.Status)
	}
	if got.FromTransport {
		t.Error("generic fault must not be transport")
	}

	got = Classify(&GenericFault{Message: "no status"})
	if got.Status != http.StatusInternalServerError {
		t.Errorf("expected default 500, got %d", got.Status)
	}
}

func TestClassify_PlainError(t *testing.T) {
	got := Classify(errors.New("something broke"))

	if got.Message != "something broke" {
		t.Errorf("expected own message, got %q", got.Message)
	}
	if got.Status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got.Status)
	}
}

func TestClassify_WrappedTransport(t *testing.T) {
	inner := &TransportFault{Message: "rate limited", Status: http.StatusTooManyRequests}
	got := Classify(fmt.Errorf("attempt 2: %w", inner))

	if got.Status != http.StatusTooManyRequests {
		t.Errorf("expected 429 from wrapped fault, got %d", got.Status)
	}
	if !got.FromTransport {
		t.Error("expected FromTransport=true")
	}
}

func TestClassify_UnknownValues(t *testing.T) {
	values := []any{"just a string", 42, nil, map[string]int{"a": 1}}

	for _, v := range values {
		got := Classify(v)
		if got.Message != UnknownErrorMessage {
			t.Errorf("%v: expected %q, got %q", v, UnknownErrorMessage, got.Message)
		}
		if got.Status != http.StatusInternalServerError {
			t.Errorf("%v: expected 500, got %d", v, got.Status)
		}
	}

	got := Classify("just a string")
	if got.Data != "just a string" {
		t.Errorf("expected raw value attached, got %v", got.Data)
	}

	got = Classify(&UnknownFault{Raw: 7})
	if got.Data != 7 {
		t.Errorf("expected raw 7, got %v", got.Data)
	}
}
