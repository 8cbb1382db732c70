package genvr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/genvr-mcp/internal/common"
)

// defaultMaxResponseSize caps remote response bodies (50MB).
const defaultMaxResponseSize = 50 << 20

// Remote operation names. Each maps to POST {base}/<op>.
const (
	OpGenerate = "generate"
	OpStatus   = "status"
	OpResponse = "response"
)

// Client calls the remote generation API. It holds no credentials: every
// call carries its own, so one client serves many accounts concurrently.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	maxResponseSize int64
	logger          *common.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxResponseMB caps how much of a response body is read.
func WithMaxResponseMB(mb int) ClientOption {
	return func(c *Client) {
		if mb > 0 {
			c.maxResponseSize = int64(mb) << 20
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, logger *common.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		maxResponseSize: defaultMaxResponseSize,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit starts a generation job and returns the remote task id.
// The category/subcategory pair is not checked against the catalog; the
// remote API decides whether it is valid.
func (c *Client) Submit(ctx context.Context, category, subcategory string, params map[string]any, creds Credentials) (string, error) {
	body := make(map[string]any, len(params)+3)
	for k, v := range params {
		body[k] = v
	}
	body["category"] = category
	body["subcategory"] = subcategory

	raw, err := c.do(ctx, OpGenerate, body, creds)
	if err != nil {
		return "", err
	}

	env := decodeEnvelope(raw)
	if env.ID == "" {
		return "", &RemoteRequestError{
			Op:         OpGenerate,
			StatusCode: http.StatusOK,
			Body:       string(raw),
			Err:        errors.New("response did not include a task id"),
		}
	}
	return env.ID, nil
}

// Status reports the current state of a task.
func (c *Client) Status(ctx context.Context, taskID, category, subcategory string, creds Credentials) (TaskStatus, error) {
	raw, err := c.do(ctx, OpStatus, map[string]any{
		"id":          taskID,
		"category":    category,
		"subcategory": subcategory,
	}, creds)
	if err != nil {
		return TaskStatus{}, err
	}

	env := decodeEnvelope(raw)
	return TaskStatus{
		Status: strings.ToLower(env.Status),
		Error:  env.Error,
	}, nil
}

// FetchResult retrieves the output of a completed task.
func (c *Client) FetchResult(ctx context.Context, taskID, category, subcategory string, creds Credentials) (json.RawMessage, error) {
	raw, err := c.do(ctx, OpResponse, map[string]any{
		"id":          taskID,
		"category":    category,
		"subcategory": subcategory,
	}, creds)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(raw).Result, nil
}

// do POSTs a JSON body to {base}/{op} with the caller's uid injected and
// the caller's API key as a bearer token.
func (c *Client) do(ctx context.Context, op string, body map[string]any, creds Credentials) ([]byte, error) {
	body["uid"] = creds.UserID

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &RemoteRequestError{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := c.baseURL + "/" + op
	c.logger.Debug().Str("method", http.MethodPost).Str("url", url).Msg("genvr request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &RemoteRequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if creds.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error().Str("op", op).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("genvr request failed")
		return nil, &RemoteRequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return nil, &RemoteRequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug().Str("op", op).Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("genvr response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteRequestError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// envelope is the lenient view of a remote response. Bodies arrive either
// wrapped as {"status": ..., "data": {...}} or flat.
type envelope struct {
	ID     string
	Status string
	Error  string
	Result json.RawMessage
}

func decodeEnvelope(raw []byte) envelope {
	env := envelope{Result: json.RawMessage(raw)}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return env
	}

	var inner map[string]json.RawMessage
	if data, ok := outer["data"]; ok && !isNull(data) {
		env.Result = data
		_ = json.Unmarshal(data, &inner)
	}

	env.ID = firstText(inner["id"], outer["id"], inner["task_id"], outer["task_id"])
	env.Status = firstText(inner["status"], outer["status"])
	env.Error = firstText(inner["error"], outer["error"], inner["message"])
	return env
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// firstText returns the first non-empty value as text. Strings are unquoted,
// numbers kept as written and objects rendered as compact JSON.
func firstText(values ...json.RawMessage) string {
	for _, v := range values {
		if isNull(v) || bytes.Equal(bytes.TrimSpace(v), []byte("false")) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err == nil {
			return buf.String()
		}
	}
	return ""
}
