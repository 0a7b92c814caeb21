package service

import (
	"context"
	"fmt"

	"github.com/viant/esmtune/platform"
)

// Teardown deletes an endpoint. A missing endpoint counts as success so the
// operation can be retried.
func (s *Service) Teardown(ctx context.Context, req TeardownRequest) (*TeardownResponse, error) {
	if req.Endpoint == "" {
		return nil, fmt.Errorf("endpoint name is required")
	}
	client, err := s.ensurePlatform(ctx)
	if err != nil {
		return nil, err
	}
	if err := client.DeleteEndpoint(ctx, req.Endpoint); err != nil {
		return nil, err
	}
	if err := s.recordEndpoint(ctx, &platform.Endpoint{
		Name:   req.Endpoint,
		Status: platform.EndpointDeleting,
	}); err != nil {
		return nil, err
	}
	s.resolveLogf(req.Logf)("deleted endpoint %s", req.Endpoint)
	return &TeardownResponse{Deleted: true}, nil
}

// Endpoints lists endpoints visible to the caller.
func (s *Service) Endpoints(ctx context.Context) (*EndpointsResponse, error) {
	client, err := s.ensurePlatform(ctx)
	if err != nil {
		return nil, err
	}
	endpoints, err := client.ListEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	return &EndpointsResponse{Endpoints: endpoints}, nil
}
