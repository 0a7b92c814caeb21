package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateEndpoint deploys a model artifact as a hosted endpoint.
func (c *Client) CreateEndpoint(ctx context.Context, req CreateEndpointRequest) (*Endpoint, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("endpoint name is required")
	}
	if req.ModelDataURL == "" {
		return nil, fmt.Errorf("endpoint %q: model data URL is required", req.Name)
	}
	if req.InstanceCount <= 0 {
		req.InstanceCount = 1
	}
	if req.RoleARN == "" {
		req.RoleARN = c.Role
	}
	if req.ClientToken == "" {
		req.ClientToken = uuid.NewString()
	}
	var ep Endpoint
	if err := c.do(ctx, http.MethodPost, "/endpoints", req, &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

// GetEndpoint fetches an endpoint by name.
func (c *Client) GetEndpoint(ctx context.Context, name string) (*Endpoint, error) {
	var ep Endpoint
	if err := c.do(ctx, http.MethodGet, "/endpoints/"+url.PathEscape(name), nil, &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

// ListEndpoints returns all endpoints visible to the caller.
func (c *Client) ListEndpoints(ctx context.Context) ([]Endpoint, error) {
	var out struct {
		Endpoints []Endpoint `json:"endpoints"`
	}
	if err := c.do(ctx, http.MethodGet, "/endpoints", nil, &out); err != nil {
		return nil, err
	}
	return out.Endpoints, nil
}

// DeleteEndpoint removes an endpoint. A 404 counts as success so teardown is
// idempotent; any other failure propagates.
func (c *Client) DeleteEndpoint(ctx context.Context, name string) error {
	err := c.do(ctx, http.MethodDelete, "/endpoints/"+url.PathEscape(name), nil, nil)
	if err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

// WaitForEndpoint polls until the endpoint is InService, fails, or ctx
// expires.
func (c *Client) WaitForEndpoint(ctx context.Context, name string, interval time.Duration) (*Endpoint, error) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ep, err := c.GetEndpoint(ctx, name)
		if err != nil && !IsThrottled(err) {
			return nil, err
		}
		if err == nil {
			switch ep.Status {
			case EndpointInService:
				return ep, nil
			case EndpointFailed:
				return ep, fmt.Errorf("endpoint %q failed: %s", name, ep.FailureReason)
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// QueryMetrics fetches monitoring samples for an endpoint metric over the
// trailing window.
func (c *Client) QueryMetrics(ctx context.Context, q MetricsQuery) (*MetricsResult, error) {
	if q.Endpoint == "" {
		return nil, fmt.Errorf("metrics query: endpoint is required")
	}
	if q.Metric == "" {
		return nil, fmt.Errorf("metrics query: metric is required")
	}
	values := url.Values{}
	values.Set("endpoint", q.Endpoint)
	values.Set("metric", q.Metric)
	if q.Statistic != "" {
		values.Set("statistic", q.Statistic)
	}
	if q.Window > 0 {
		values.Set("window", q.Window.String())
	}
	var out MetricsResult
	if err := c.do(ctx, http.MethodGet, "/metrics/query?"+values.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
