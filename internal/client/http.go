package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
	scenarioPrefix = "/scenarios/complex/"
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPClient makes REST calls to the scoring service.
type HTTPClient struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of any
// client given with WithHTTPClient, regardless of option order.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.timeout = d
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *HTTPClient) {
		c.token = token
	}
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://localhost:8000").
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// BaseURL returns the service root the client talks to.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// StartSession sends POST /scenarios/complex/{scenario}/start.
func (c *HTTPClient) StartSession(ctx context.Context, scenarioID string) (*StartResponse, error) {
	var out StartResponse
	if err := c.do(ctx, http.MethodPost, scenarioPath(scenarioID, "start"), struct{}{}, &out); err != nil {
		return nil, err
	}
	if out.SessionID == "" {
		return nil, fmt.Errorf("start %s: response has no session_id", scenarioID)
	}
	return &out, nil
}

// ListEvents fetches GET /scenarios/complex/{session}/events.
func (c *HTTPClient) ListEvents(ctx context.Context, sessionID string) (*EventsResponse, error) {
	var out EventsResponse
	if err := c.do(ctx, http.MethodGet, scenarioPath(sessionID, "events"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Respond sends POST /scenarios/complex/{session}/respond.
func (c *HTTPClient) Respond(ctx context.Context, sessionID string, req RespondRequest) (*RespondResponse, error) {
	var out RespondResponse
	if err := c.do(ctx, http.MethodPost, scenarioPath(sessionID, "respond"), req, &out); err != nil {
		return nil, err
	}
	if out.Evaluation == nil {
		return nil, fmt.Errorf("respond %s: response has no evaluation", req.EventID)
	}
	return &out, nil
}

// Summary fetches GET /scenarios/complex/{session}/summary.
func (c *HTTPClient) Summary(ctx context.Context, sessionID string) (*SummaryPayload, error) {
	var out SummaryPayload
	if err := c.do(ctx, http.MethodGet, scenarioPath(sessionID, "summary"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func scenarioPath(id, op string) string {
	return scenarioPrefix + url.PathEscape(id) + "/" + op
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
