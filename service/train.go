package service

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs/url"

	"github.com/viant/esmtune/dataset"
	"github.com/viant/esmtune/lora"
	"github.com/viant/esmtune/platform"
)

// Train submits a LoRA fine-tuning job for a prepared dataset, optionally
// waiting for completion.
func (s *Service) Train(ctx context.Context, req TrainRequest) (*TrainResponse, error) {
	if req.DatasetURL == "" {
		return nil, fmt.Errorf("dataset URL is required")
	}
	cfg := req.LoRA
	if cfg == nil {
		defaults, err := lora.DefaultsFor(s.config.Model.Base)
		if err != nil {
			return nil, err
		}
		cfg = &defaults
	}
	if cfg.BaseModel == "" {
		cfg.BaseModel = s.config.Model.Base
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tuning config: %w", err)
	}

	manifest, err := dataset.LoadManifest(ctx, s.fs, req.DatasetURL)
	if err != nil {
		return nil, fmt.Errorf("load dataset manifest: %w", err)
	}
	if manifest.TrainCount == 0 {
		return nil, fmt.Errorf("dataset %s has no training records", manifest.Name)
	}

	jobName := req.JobName
	if jobName == "" {
		jobName = fmt.Sprintf("%s-%s-%s", cfg.BaseModel, manifest.Name, time.Now().UTC().Format("20060102-150405"))
	}
	outputURL := req.OutputURL
	if outputURL == "" {
		if s.config.Storage.BaseURL == "" {
			return nil, fmt.Errorf("output URL is required (no storage base URL configured)")
		}
		outputURL = url.Join(s.config.Storage.BaseURL, "models", jobName)
	}

	client, err := s.ensurePlatform(ctx)
	if err != nil {
		return nil, err
	}
	logf := s.resolveLogf(req.Logf)

	job, err := client.CreateTrainingJob(ctx, platform.CreateTrainingJobRequest{
		Name:            jobName,
		BaseModel:       cfg.BaseModel,
		Hyperparameters: cfg.Hyperparameters(),
		TrainDataURL:    manifest.TrainURL,
		ValidationURL:   manifest.ValidationURL,
		OutputURL:       outputURL,
		InstanceType:    req.InstanceType,
		MaxRuntime:      req.MaxRuntime,
	})
	if err != nil {
		return nil, err
	}
	logf("submitted training job %s (base %s, %d train records)", job.Name, job.BaseModel, manifest.TrainCount)
	if err := s.recordJob(ctx, job); err != nil {
		return nil, err
	}
	if !req.Wait {
		return &TrainResponse{Job: job}, nil
	}

	job, waitErr := client.WaitForTrainingJob(ctx, jobName, req.PollInterval)
	if job != nil {
		if err := s.recordJob(ctx, job); err != nil {
			return nil, err
		}
	}
	if waitErr != nil {
		return &TrainResponse{Job: job}, waitErr
	}
	logf("training job %s completed, model at %s", job.Name, job.ModelDataURL)
	return &TrainResponse{Job: job}, nil
}

func (s *Service) recordJob(ctx context.Context, job *platform.TrainingJob) error {
	store, err := s.ensureStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	if err := store.RecordJob(ctx, job); err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	return nil
}
