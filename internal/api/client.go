package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/google/uuid"
)

// BasePath is the API prefix every endpoint lives under.
const BasePath = "/api/v1"

// Client provides access to the sector selection backend.
type Client interface {
	// ListSectors returns the full sector tree.
	ListSectors(ctx context.Context) ([]domain.SectorNode, error)

	// GetMySelection returns the current session's saved selection, or nil
	// when none exists yet.
	GetMySelection(ctx context.Context) (*domain.SavedSelection, error)

	// CreateSelection saves a first selection for the session.
	CreateSelection(ctx context.Context, req domain.SelectionRequest) (*domain.SavedSelection, error)

	// UpdateSelection replaces the session's existing selection.
	UpdateSelection(ctx context.Context, req domain.SelectionRequest) (*domain.SavedSelection, error)
}

// Config holds connection settings for the HTTP client.
type Config struct {
	BaseURL string
	Timeout time.Duration // zero leaves the transport default
}

// HTTPClient implements Client over JSON/HTTP with cookie-based sessions.
type HTTPClient struct {
	baseURL  string
	http     *http.Client
	observer Observer
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client. jar carries the session cookie between
// requests and, when persistent, between runs.
func NewHTTPClient(cfg Config, jar http.CookieJar, observer Observer) *HTTPClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + BasePath,
		http: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		observer: observer,
	}
}

func (c *HTTPClient) ListSectors(ctx context.Context) ([]domain.SectorNode, error) {
	var out []domain.SectorNode
	if _, err := c.do(ctx, http.MethodGet, "/sectors", nil, &out); err != nil {
		return nil, fmt.Errorf("listing sectors: %w", err)
	}
	if out == nil {
		out = []domain.SectorNode{}
	}
	return out, nil
}

func (c *HTTPClient) GetMySelection(ctx context.Context) (*domain.SavedSelection, error) {
	var out domain.SavedSelection
	decoded, err := c.do(ctx, http.MethodGet, "/user-selections/me", nil, &out)
	if err != nil {
		return nil, fmt.Errorf("loading saved selection: %w", err)
	}
	if !decoded {
		return nil, nil
	}
	return &out, nil
}

func (c *HTTPClient) CreateSelection(ctx context.Context, req domain.SelectionRequest) (*domain.SavedSelection, error) {
	var out domain.SavedSelection
	if _, err := c.do(ctx, http.MethodPost, "/user-selections", req, &out); err != nil {
		return nil, fmt.Errorf("creating selection: %w", err)
	}
	return &out, nil
}

func (c *HTTPClient) UpdateSelection(ctx context.Context, req domain.SelectionRequest) (*domain.SavedSelection, error) {
	var out domain.SavedSelection
	if _, err := c.do(ctx, http.MethodPut, "/user-selections/me", req, &out); err != nil {
		return nil, fmt.Errorf("updating selection: %w", err)
	}
	return &out, nil
}

// do issues a single request and reports whether a body was decoded into
// out. A 204, an empty body or a JSON null leaves out untouched. Non-2xx statuses come
// back as *RequestError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (bool, error) {
	start := time.Now()
	event := CallEvent{
		RequestID: uuid.New().String(),
		Method:    method,
		Path:      path,
	}
	defer func() {
		event.LatencyMs = time.Since(start).Milliseconds()
		c.observer.OnCallComplete(event)
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			event.Err = err
			return false, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		event.Err = err
		return false, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", event.RequestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		event.Err = err
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()
	event.Status = httpResp.StatusCode

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		event.Err = err
		return false, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		reqErr := &RequestError{
			Status:  httpResp.StatusCode,
			Problem: parseProblem(httpResp.StatusCode, respBody),
		}
		event.Err = reqErr
		return false, reqErr
	}

	trimmed := bytes.TrimSpace(respBody)
	if httpResp.StatusCode == http.StatusNoContent || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || out == nil {
		return false, nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		event.Err = err
		return false, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return true, nil
}

// parseProblem decodes a problem-detail body. Bodies that are not JSON are
// kept as the detail text so the user still sees something meaningful.
func parseProblem(status int, body []byte) ProblemDetail {
	var p ProblemDetail
	if err := json.Unmarshal(body, &p); err == nil && (p.Detail != "" || p.Title != "" || len(p.Errors) > 0) {
		if p.Status == 0 {
			p.Status = status
		}
		return p
	}
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = http.StatusText(status)
	}
	return ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}
