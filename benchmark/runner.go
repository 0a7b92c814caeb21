// Package benchmark measures client-side latency and throughput of a hosted
// inference endpoint and cross-checks the numbers against the platform's
// monitoring API.
package benchmark

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/esmtune/inference"
)

// Invoker issues a single prediction. *inference.Client satisfies it.
type Invoker interface {
	Predict(ctx context.Context, seq string) (inference.Prediction, error)
}

// Config controls a benchmark run.
type Config struct {
	Concurrency int           // worker count (>=1)
	Requests    int           // total requests to issue (>=1)
	Timeout     time.Duration // per-request timeout; 0 disables
}

// Result is one request outcome.
type Result struct {
	Latency time.Duration
	Err     error
}

// Runner drives concurrent requests against an invoker.
type Runner struct {
	invoker Invoker
	cfg     Config
	logf    func(format string, args ...any)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogf sets a progress logger.
func WithLogf(logf func(format string, args ...any)) RunnerOption {
	return func(r *Runner) { r.logf = logf }
}

// NewRunner creates a benchmark runner.
func NewRunner(invoker Invoker, cfg Config, options ...RunnerOption) (*Runner, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Requests < 1 {
		return nil, fmt.Errorf("requests must be positive, got %d", cfg.Requests)
	}
	r := &Runner{invoker: invoker, cfg: cfg}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Run issues cfg.Requests invocations over the inputs (cycled round-robin)
// with cfg.Concurrency workers and summarizes the outcome. Per-request
// failures are recorded, not propagated; Run fails only on bad input or
// context cancellation.
func (r *Runner) Run(ctx context.Context, inputs []string) (*Summary, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no input sequences")
	}
	jobs := make(chan int)
	results := make([]Result, r.cfg.Requests)

	var wg sync.WaitGroup
	wg.Add(r.cfg.Concurrency)
	for w := 0; w < r.cfg.Concurrency; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = r.invoke(ctx, inputs[idx%len(inputs)])
			}
		}()
	}

	started := time.Now()
feed:
	for i := 0; i < r.cfg.Requests; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
		if r.logf != nil && (i+1)%100 == 0 {
			r.logf("benchmark: issued %d/%d requests", i+1, r.cfg.Requests)
		}
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(started)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	summary := Summarize(results, elapsed)
	return &summary, nil
}

func (r *Runner) invoke(ctx context.Context, seq string) Result {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	started := time.Now()
	_, err := r.invoker.Predict(ctx, seq)
	return Result{Latency: time.Since(started), Err: err}
}
