// Package service orchestrates the fine-tuning workflow: dataset
// preparation, training job submission, endpoint deployment, invocation and
// benchmarking, with run history recorded locally.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/afs"

	"github.com/viant/esmtune/inference"
	"github.com/viant/esmtune/platform"
	"github.com/viant/esmtune/runstore"
	"github.com/viant/esmtune/tokenizer"
)

// Option configures the Service.
type Option func(*Service)

// WithPlatform sets an existing platform client.
func WithPlatform(client *platform.Client) Option {
	return func(s *Service) { s.platform = client }
}

// WithStore sets an existing run store.
func WithStore(store *runstore.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithFS sets the storage service used for shards and manifests.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithLogf sets the default logger for operations that do not carry one.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Service) { s.logf = logf }
}

// Service exposes reusable operations for the fine-tune, deploy and
// benchmark workflow.
type Service struct {
	config   *Config
	platform *platform.Client
	store    *runstore.Store
	fs       afs.Service
	tok      *tokenizer.Tokenizer
	logf     func(format string, args ...any)

	mu         sync.Mutex
	ownedStore bool
}

// New creates a Service. A nil config gets defaults.
func New(config *Config, opts ...Option) (*Service, error) {
	if config == nil {
		config = &Config{}
	}
	config.Init()
	s := &Service{
		config: config,
		fs:     afs.New(),
		tok:    tokenizer.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the active configuration.
func (s *Service) Config() *Config { return s.config }

// Close releases an owned run store (if any).
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil && s.ownedStore {
		err := s.store.Close()
		s.store = nil
		return err
	}
	return nil
}

func (s *Service) ensurePlatform(ctx context.Context) (*platform.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.platform != nil {
		return s.platform, nil
	}
	if s.config.Platform.BaseURL == "" {
		return nil, fmt.Errorf("platform base URL is required")
	}
	token, err := platform.ResolveToken(ctx, s.config.Platform.Token, s.config.Platform.TokenSecret)
	if err != nil {
		return nil, err
	}
	client, err := platform.NewClient(s.config.Platform.BaseURL,
		platform.WithToken(token),
		platform.WithRole(s.config.Platform.Role),
		platform.WithLogf(s.logf))
	if err != nil {
		return nil, err
	}
	s.platform = client
	return client, nil
}

// ensureStore opens the run store lazily. A missing DSN means run history is
// disabled; callers get a nil store and skip recording.
func (s *Service) ensureStore(ctx context.Context) (*runstore.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return s.store, nil
	}
	if s.config.Store.DSN == "" {
		return nil, nil
	}
	store, err := runstore.Open(ctx, s.config.Store.DSN)
	if err != nil {
		return nil, err
	}
	s.store = store
	s.ownedStore = true
	return store, nil
}

// invoker builds an invocation client for a deployed endpoint, reusing the
// control plane credentials.
func (s *Service) invoker(ctx context.Context, endpoint string) (*inference.Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint name is required")
	}
	client, err := s.ensurePlatform(ctx)
	if err != nil {
		return nil, err
	}
	return inference.NewClient(client.InvokeURL(endpoint), inference.WithToken(client.Token))
}

func (s *Service) resolveLogf(logf func(format string, args ...any)) func(format string, args ...any) {
	if logf != nil {
		return logf
	}
	if s.logf != nil {
		return s.logf
	}
	return func(string, ...any) {}
}
