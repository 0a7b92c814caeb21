package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs/url"

	"github.com/viant/esmtune/dataset"
)

// Prepare builds a tokenized dataset from FASTA input and uploads it to the
// configured storage location.
func (s *Service) Prepare(ctx context.Context, req PrepareRequest) (*PrepareResponse, error) {
	if req.Source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if req.MaxLen == 0 {
		req.MaxLen = s.config.Model.MaxLen
	}
	name := req.Name
	if name == "" {
		name = datasetName(req.Source)
	}
	outputURL := req.OutputURL
	if outputURL == "" {
		if s.config.Storage.BaseURL == "" {
			return nil, fmt.Errorf("output URL is required (no storage base URL configured)")
		}
		outputURL = url.Join(s.config.Storage.BaseURL, "datasets", name)
	}
	logf := s.resolveLogf(req.Logf)

	builder := dataset.NewBuilder(s.fs, s.tok)
	manifest, err := builder.Build(ctx, dataset.Request{
		Name:               name,
		Source:             req.Source,
		OutputURL:          outputURL,
		MaxLen:             req.MaxLen,
		MinSeqLen:          req.MinSeqLen,
		MaxSeqLen:          req.MaxSeqLen,
		ValidationFraction: req.ValidationFraction,
		CacheURL:           req.CacheURL,
		Logf:               logf,
	})
	if err != nil {
		return nil, err
	}
	if store, err := s.ensureStore(ctx); err != nil {
		return nil, err
	} else if store != nil {
		if err := store.RecordDataset(ctx, manifest); err != nil {
			return nil, fmt.Errorf("record dataset: %w", err)
		}
	}
	logf("prepared dataset %s: %d train, %d validation, %d skipped",
		manifest.Name, manifest.TrainCount, manifest.ValidationCount, manifest.Skipped)
	return &PrepareResponse{Manifest: manifest}, nil
}

func datasetName(source string) string {
	base := path.Base(strings.ReplaceAll(source, "\\", "/"))
	base = strings.TrimSuffix(base, ".gz")
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	if base == "" || base == "-" || base == "/" {
		return "dataset"
	}
	return base
}
