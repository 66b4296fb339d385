package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Request / response types (CLI не импортирует internal/api) ---

// CreateTaskRequest — тело POST /api/tasks.
type CreateTaskRequest struct {
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	CallbackURL string            `json:"callbackUrl"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        json.RawMessage   `json:"body,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty"`
	Timeout     int               `json:"timeout,omitempty"`
	MaxRetries  int               `json:"maxRetries,omitempty"`
	RetryDelay  int               `json:"retryDelay,omitempty"`
	Sequential  bool              `json:"shouldBeSequential,omitempty"`
}

// CreateTaskResponse — ответ на создание task.
type CreateTaskResponse struct {
	TaskID    string `json:"taskId"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// OperationResult — результат удаления или очистки.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ErrNotFound — API ответил 404.
var ErrNotFound = errors.New("not found")

// APIError — ответ API с кодом >= 400.
type APIError struct {
	Status  int
	Code    string
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if msg == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// errorBody покрывает оба формата ошибок API:
// {"error":{"code","message"}} и {"message","error"}.
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

// --- Client ---

// Client — HTTP-клиент для Courier API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateTask ставит task в очередь.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResponse, error) {
	var res CreateTaskResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/tasks", req, &res)
	return &res, err
}

// DeleteTask удаляет task по ID.
func (c *Client) DeleteTask(ctx context.Context, id string) (*OperationResult, error) {
	var res OperationResult
	err := c.doJSON(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, &res)
	return &res, err
}

// ClearQueue удаляет завершённые и упавшие job.
func (c *Client) ClearQueue(ctx context.Context) (*OperationResult, error) {
	var res OperationResult
	err := c.doJSON(ctx, http.MethodDelete, "/api/queue", nil, &res)
	return &res, err
}

// --- HTTP helpers ---

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}

	var eb errorBody
	if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
		return apiErr
	}
	apiErr.Message = eb.Message

	var detail errorDetail
	if json.Unmarshal(eb.Error, &detail) == nil && detail.Message != "" {
		apiErr.Code = detail.Code
		apiErr.Message = detail.Message
		if detail.Field != "" {
			apiErr.Message = detail.Field + ": " + detail.Message
		}
		return apiErr
	}

	var text string
	if json.Unmarshal(eb.Error, &text) == nil {
		apiErr.Detail = text
	}
	return apiErr
}
