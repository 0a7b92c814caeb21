// Package inference invokes a hosted ESM-2 endpoint. The wire contract is
// {"inputs": "<sequence>"} in and a token-to-probability map out, covering
// the masked position of the input.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultHTTPClientTO = 30 * time.Second

// Prediction maps vocabulary tokens to probabilities.
type Prediction map[string]float64

// Request is the invocation payload.
type Request struct {
	Inputs string `json:"inputs"`
}

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

// WithToken sets the bearer token attached to invocations.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.Token = token }
}

// Client invokes a single hosted endpoint.
type Client struct {
	URL        string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates an invocation client for an endpoint URL.
func NewClient(url string, options ...ClientOption) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("endpoint URL is required")
	}
	c := &Client{URL: url, HTTPClient: &http.Client{Timeout: defaultHTTPClientTO}}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Predict issues a single invocation.
func (c *Client) Predict(ctx context.Context, seq string) (Prediction, error) {
	if strings.TrimSpace(seq) == "" {
		return nil, fmt.Errorf("empty sequence")
	}
	body, err := json.Marshal(Request{Inputs: seq})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("endpoint error: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	var out Prediction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("endpoint returned no token probabilities")
	}
	return out, nil
}

// PredictBatch invokes the endpoint for each sequence with bounded
// concurrency. Results align with the input order; the first error observed
// is returned alongside the partial results.
func (c *Client) PredictBatch(ctx context.Context, seqs []string, concurrency int) ([]Prediction, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	out := make([]Prediction, len(seqs))
	sem := make(chan struct{}, concurrency)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, seq := range seqs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return out, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, seq string) {
			defer wg.Done()
			defer func() { <-sem }()
			pred, err := c.Predict(ctx, seq)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("sequence %d: %w", i, err)
				}
				return
			}
			out[i] = pred
		}(i, seq)
	}
	wg.Wait()
	return out, firstErr
}
