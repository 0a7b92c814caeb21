package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

const manifestFile = "manifest.json"

// Manifest describes a prepared dataset: shard locations, record counts and
// content digests, so downstream jobs can verify they train on the intended
// data.
type Manifest struct {
	Name               string    `json:"name"`
	CreatedAt          time.Time `json:"createdAt"`
	BaseURL            string    `json:"baseUrl"`
	TrainURL           string    `json:"trainUrl"`
	ValidationURL      string    `json:"validationUrl,omitempty"`
	TrainCount         int       `json:"trainCount"`
	ValidationCount    int       `json:"validationCount"`
	Skipped            int       `json:"skipped"`
	MaxLen             int       `json:"maxLen"`
	ValidationFraction float64   `json:"validationFraction"`
	TrainDigest        string    `json:"trainDigest"`
	ValidationDigest   string    `json:"validationDigest,omitempty"`
	VocabDigest        string    `json:"vocabDigest"`
}

// Save uploads the manifest next to the shards.
func (m *Manifest) Save(ctx context.Context, fs afs.Service) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	URL := url.Join(m.BaseURL, manifestFile)
	if err := fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload manifest %v: %w", URL, err)
	}
	return nil
}

// LoadManifest downloads a manifest from a dataset base URL.
func LoadManifest(ctx context.Context, fs afs.Service, baseURL string) (*Manifest, error) {
	URL := url.Join(baseURL, manifestFile)
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("download manifest %v: %w", URL, err)
	}
	manifest := &Manifest{}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("decode manifest %v: %w", URL, err)
	}
	return manifest, nil
}

// Verify re-downloads the shards and compares content digests.
func (m *Manifest) Verify(ctx context.Context, fs afs.Service) error {
	shards := []struct{ URL, digest string }{
		{m.TrainURL, m.TrainDigest},
		{m.ValidationURL, m.ValidationDigest},
	}
	for _, shard := range shards {
		if shard.URL == "" {
			continue
		}
		data, err := fs.DownloadWithURL(ctx, shard.URL)
		if err != nil {
			return fmt.Errorf("download shard %v: %w", shard.URL, err)
		}
		actual, err := DigestHex(data)
		if err != nil {
			return err
		}
		if actual != shard.digest {
			return fmt.Errorf("shard %v digest mismatch: manifest %s, actual %s", shard.URL, shard.digest, actual)
		}
	}
	return nil
}
