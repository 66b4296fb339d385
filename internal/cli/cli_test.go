package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// runCmd выполняет команду против тестового API и возвращает stdout/stderr.
func runCmd(t *testing.T, handler http.HandlerFunc, args ...string) (string, string, error) {
	t.Helper()

	server := httptest.NewServer(handler)
	defer server.Close()

	var stdout, stderr bytes.Buffer
	var jsonMode bool

	root := &cobra.Command{Use: "courier", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().BoolVar(&jsonMode, "json", false, "")

	clientFn := func() *Client { return NewClient(server.URL) }
	outputFn := func() *Output { return NewOutputTo(jsonMode, &stdout, &stderr) }
	root.AddCommand(NewTaskCmd(clientFn, outputFn), NewQueueCmd(clientFn, outputFn))

	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestTaskCreate(t *testing.T) {
	var got CreateTaskRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"taskId":"abc","status":"queued","createdAt":"2025-01-01T00:00:00Z"}`))
	}

	stdout, _, err := runCmd(t, handler,
		"task", "create", "post", "https://target.example.com/x",
		"--callback", "https://cb.example.com",
		"-H", "Authorization: Bearer t",
		"-q", "page=2",
		"-d", `{"a":1}`,
		"--max-retries", "4",
		"--sequential",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Method != "POST" || got.URL != "https://target.example.com/x" {
		t.Errorf("unexpected method/url %s %s", got.Method, got.URL)
	}
	if got.Headers["Authorization"] != "Bearer t" {
		t.Errorf("header not parsed: %v", got.Headers)
	}
	if got.QueryParams["page"] != "2" {
		t.Errorf("query not parsed: %v", got.QueryParams)
	}
	if string(got.Body) != `{"a":1}` {
		t.Errorf("unexpected body %s", got.Body)
	}
	if got.MaxRetries != 4 || !got.Sequential {
		t.Errorf("flags not applied: %+v", got)
	}
	if !strings.Contains(stdout, "abc") || !strings.Contains(stdout, "queued") {
		t.Errorf("table should contain task id and status, got %q", stdout)
	}
}

func TestTaskCreate_InvalidBody(t *testing.T) {
	handler := func(http.ResponseWriter, *http.Request) {
		t.Error("request must not be sent")
	}

	_, _, err := runCmd(t, handler, "task", "create", "POST", "http://a", "--callback", "http://b", "-d", "{oops")
	if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Errorf("expected JSON error, got %v", err)
	}
}

func TestTaskCreate_ValidationError(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST","message":"maxRetries must be between 1 and 10","field":"maxRetries"}}`))
	}

	_, _, err := runCmd(t, handler, "task", "create", "GET", "http://a", "--callback", "http://b", "--max-retries", "50")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "BAD_REQUEST" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "maxRetries") {
		t.Errorf("message should name the field, got %q", err.Error())
	}
}

func TestTaskDelete(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/tasks/abc" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"message":"Job with id=abc removed successfully"}`))
	}

	_, stderr, err := runCmd(t, handler, "task", "delete", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "removed successfully") {
		t.Errorf("expected success message, got %q", stderr)
	}
}

func TestTaskDelete_NotFound(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"Job with id=zzz not found"}`))
	}

	_, _, err := runCmd(t, handler, "task", "delete", "zzz")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "Job with id=zzz not found") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestQueueClear_JSON(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/queue" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"message":"Queue cleanup successfully"}`))
	}

	stdout, _, err := runCmd(t, handler, "--json", "queue", "clear")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res OperationResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("stdout should be JSON: %v (%q)", err, stdout)
	}
	if !res.Success || res.Message != "Queue cleanup successfully" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestQueueClear_Failure(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Failed to clear queues","error":"redis: connection refused"}`))
	}

	_, _, err := runCmd(t, handler, "queue", "clear")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected failure with detail, got %v", err)
	}
}

func TestParsePairs(t *testing.T) {
	m, err := parsePairs([]string{"a=1", "b = two"}, "=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["a"] != "1" || m["b"] != "two" {
		t.Errorf("unexpected map %v", m)
	}

	if _, err := parsePairs([]string{"novalue"}, "="); err == nil {
		t.Error("expected error for missing separator")
	}
}
