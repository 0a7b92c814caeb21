package service

import (
	"context"
	"fmt"

	"github.com/viant/esmtune/lora"
	"github.com/viant/esmtune/platform"
)

// Deploy creates a hosted endpoint for a trained model, optionally waiting
// until it is in service.
func (s *Service) Deploy(ctx context.Context, req DeployRequest) (*DeployResponse, error) {
	if req.EndpointName == "" {
		return nil, fmt.Errorf("endpoint name is required")
	}
	client, err := s.ensurePlatform(ctx)
	if err != nil {
		return nil, err
	}
	logf := s.resolveLogf(req.Logf)

	modelDataURL := req.ModelDataURL
	if modelDataURL == "" {
		if req.JobName == "" {
			return nil, fmt.Errorf("model data URL or job name is required")
		}
		job, err := client.GetTrainingJob(ctx, req.JobName)
		if err != nil {
			return nil, err
		}
		if job.Status != platform.JobCompleted {
			return nil, fmt.Errorf("training job %q is %s, not Completed", req.JobName, job.Status)
		}
		if job.ModelDataURL == "" {
			return nil, fmt.Errorf("training job %q has no model artifact", req.JobName)
		}
		modelDataURL = job.ModelDataURL
	}

	compile := req.Compile
	if compile == nil {
		spec := lora.DefaultCompileSpec()
		compile = &spec
	}
	if err := compile.Validate(); err != nil {
		return nil, fmt.Errorf("compile spec: %w", err)
	}

	instanceType := req.InstanceType
	if instanceType == "" {
		instanceType = s.config.Endpoint.InstanceType
	}
	instanceCount := req.InstanceCount
	if instanceCount == 0 {
		instanceCount = s.config.Endpoint.InstanceCount
	}

	ep, err := client.CreateEndpoint(ctx, platform.CreateEndpointRequest{
		Name:          req.EndpointName,
		ModelDataURL:  modelDataURL,
		InstanceType:  instanceType,
		InstanceCount: instanceCount,
		Compilation:   compile.Attributes(),
	})
	if err != nil {
		return nil, err
	}
	logf("deploying endpoint %s (%s x%d) from %s", ep.Name, ep.InstanceType, ep.InstanceCount, modelDataURL)
	if err := s.recordEndpoint(ctx, ep); err != nil {
		return nil, err
	}
	if !req.Wait {
		return &DeployResponse{Endpoint: ep}, nil
	}

	ep, waitErr := client.WaitForEndpoint(ctx, req.EndpointName, req.PollInterval)
	if ep != nil {
		if err := s.recordEndpoint(ctx, ep); err != nil {
			return nil, err
		}
	}
	if waitErr != nil {
		return &DeployResponse{Endpoint: ep}, waitErr
	}
	logf("endpoint %s is in service", ep.Name)
	return &DeployResponse{Endpoint: ep}, nil
}

func (s *Service) recordEndpoint(ctx context.Context, ep *platform.Endpoint) error {
	store, err := s.ensureStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	if err := store.RecordEndpoint(ctx, ep); err != nil {
		return fmt.Errorf("record endpoint: %w", err)
	}
	return nil
}
