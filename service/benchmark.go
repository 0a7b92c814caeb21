package service

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/esmtune/benchmark"
	"github.com/viant/esmtune/fasta"
	"github.com/viant/esmtune/runstore"
)

const maxBenchmarkInputs = 256

// Benchmark load-tests an endpoint, summarizes client-side latency and
// optionally cross-checks against the platform's monitoring metrics. The run
// is persisted to the run store when one is configured.
func (s *Service) Benchmark(ctx context.Context, req BenchmarkRequest) (*BenchmarkResponse, error) {
	if req.Endpoint == "" {
		return nil, fmt.Errorf("endpoint name is required")
	}
	inputs, err := s.benchmarkInputs(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Requests == 0 {
		req.Requests = 100
	}
	if req.Concurrency == 0 {
		req.Concurrency = 4
	}
	logf := s.resolveLogf(req.Logf)

	client, err := s.invoker(ctx, req.Endpoint)
	if err != nil {
		return nil, err
	}
	runner, err := benchmark.NewRunner(client, benchmark.Config{
		Concurrency: req.Concurrency,
		Requests:    req.Requests,
		Timeout:     req.Timeout,
	}, benchmark.WithLogf(logf))
	if err != nil {
		return nil, err
	}
	logf("benchmarking %s: %d requests, concurrency %d, %d distinct inputs",
		req.Endpoint, req.Requests, req.Concurrency, len(inputs))
	summary, err := runner.Run(ctx, inputs)
	if err != nil {
		return nil, err
	}

	resp := &BenchmarkResponse{Summary: summary}
	if req.ServerSide {
		platformClient, err := s.ensurePlatform(ctx)
		if err != nil {
			return nil, err
		}
		window := req.MetricsWindow
		if window == 0 {
			window = 5 * time.Minute
		}
		serverSide, err := benchmark.CollectServerSide(ctx, platformClient, req.Endpoint, window, 0)
		if err != nil {
			logf("server-side metrics unavailable: %v", err)
		} else {
			resp.ServerSide = serverSide
		}
	}

	if store, err := s.ensureStore(ctx); err != nil {
		return nil, err
	} else if store != nil {
		id, err := store.RecordBenchmark(ctx, runstore.BenchmarkRecord{
			Endpoint:    req.Endpoint,
			Concurrency: req.Concurrency,
			Summary:     *summary,
			ServerSide:  resp.ServerSide,
		})
		if err != nil {
			return nil, fmt.Errorf("record benchmark: %w", err)
		}
		resp.RunID = id
	}
	logf("benchmark done: %s", summary)
	return resp, nil
}

// benchmarkInputs resolves the request sequences, drawing from a FASTA file
// when none are given inline.
func (s *Service) benchmarkInputs(ctx context.Context, req BenchmarkRequest) ([]string, error) {
	if len(req.Sequences) > 0 {
		return req.Sequences, nil
	}
	if req.Source == "" {
		return nil, fmt.Errorf("sequences or a FASTA source are required")
	}
	var inputs []string
	err := fasta.StreamPath(ctx, req.Source, func(rec fasta.Record) error {
		inputs = append(inputs, rec.Seq)
		if len(inputs) >= maxBenchmarkInputs {
			return fasta.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no sequences in %s", req.Source)
	}
	return inputs, nil
}
