package service

import (
	"context"
	"fmt"

	"github.com/viant/esmtune/runstore"
)

// RunsRequest defines inputs for run history queries.
type RunsRequest struct {
	Endpoint string
	Limit    int
}

// RunsResponse lists recorded benchmark runs, newest first.
type RunsResponse struct {
	Runs []runstore.BenchmarkRow
}

// Runs returns recorded benchmark runs from the run store.
func (s *Service) Runs(ctx context.Context, req RunsRequest) (*RunsResponse, error) {
	store, err := s.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("run store is not configured")
	}
	rows, err := store.ListBenchmarks(ctx, req.Endpoint, req.Limit)
	if err != nil {
		return nil, err
	}
	return &RunsResponse{Runs: rows}, nil
}
