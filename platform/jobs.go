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

// CreateTrainingJob submits a fine-tuning job. A missing role falls back to
// the client role; a client token is generated when absent so retries are
// idempotent.
func (c *Client) CreateTrainingJob(ctx context.Context, req CreateTrainingJobRequest) (*TrainingJob, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("training job name is required")
	}
	if req.TrainDataURL == "" {
		return nil, fmt.Errorf("training job %q: train data URL is required", req.Name)
	}
	if req.OutputURL == "" {
		return nil, fmt.Errorf("training job %q: output URL is required", req.Name)
	}
	if req.RoleARN == "" {
		req.RoleARN = c.Role
	}
	if req.ClientToken == "" {
		req.ClientToken = uuid.NewString()
	}
	if req.MaxRuntime > 0 {
		req.MaxRuntimeSecs = int(req.MaxRuntime / time.Second)
	}
	var job TrainingJob
	if err := c.do(ctx, http.MethodPost, "/training-jobs", req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetTrainingJob fetches a job by name.
func (c *Client) GetTrainingJob(ctx context.Context, name string) (*TrainingJob, error) {
	var job TrainingJob
	if err := c.do(ctx, http.MethodGet, "/training-jobs/"+url.PathEscape(name), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// StopTrainingJob requests cancellation of a running job.
func (c *Client) StopTrainingJob(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/training-jobs/"+url.PathEscape(name)+"/stop", nil, nil)
}

// WaitForTrainingJob polls until the job reaches a terminal status or ctx
// expires. Throttling responses are retried at the next tick.
func (c *Client) WaitForTrainingJob(ctx context.Context, name string, interval time.Duration) (*TrainingJob, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := c.GetTrainingJob(ctx, name)
		if err != nil && !IsThrottled(err) {
			return nil, err
		}
		if err == nil && job.Status.Terminal() {
			if job.Status != JobCompleted {
				return job, fmt.Errorf("training job %q ended with status %s: %s", name, job.Status, job.FailureReason)
			}
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
