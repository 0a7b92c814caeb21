// Package platform is a REST client for the managed training and inference
// service: training job submission, endpoint lifecycle and monitoring queries.
// The service itself is a black box; this package only speaks its JSON
// contract.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPClientTO = 60 * time.Second
	apiPrefix           = "/v1"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithToken sets the bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.Token = token }
}

// WithRole sets the execution role passed to job and endpoint requests that
// do not carry one.
func WithRole(role string) ClientOption {
	return func(c *Client) { c.Role = role }
}

// WithLogf sets a request logger.
func WithLogf(logf func(format string, args ...any)) ClientOption {
	return func(c *Client) { c.logf = logf }
}

// Client talks to the platform control plane.
type Client struct {
	BaseURL    string
	Token      string
	Role       string
	HTTPClient *http.Client
	logf       func(format string, args ...any)
}

// NewClient creates a platform client. An empty token falls back to the
// ESMTUNE_PLATFORM_TOKEN environment variable.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("platform base URL is required")
	}
	c := &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultHTTPClientTO},
	}
	for _, opt := range options {
		opt(c)
	}
	if c.Token == "" {
		c.Token = os.Getenv("ESMTUNE_PLATFORM_TOKEN")
	}
	return c, nil
}

// InvokeURL returns the invocation URL of a hosted endpoint.
func (c *Client) InvokeURL(endpoint string) string {
	return c.BaseURL + apiPrefix + "/endpoints/" + url.PathEscape(endpoint) + "/invocations"
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+apiPrefix+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.logf != nil {
		c.logf("platform %s %s", method, path)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var envelope struct {
		Error Error `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		envelope.Error.StatusCode = resp.StatusCode
		return &envelope.Error
	}
	message := strings.TrimSpace(string(data))
	if message == "" {
		message = resp.Status
	}
	return &Error{StatusCode: resp.StatusCode, Message: message}
}
