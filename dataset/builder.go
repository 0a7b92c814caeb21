// Package dataset turns raw protein FASTA input into tokenized JSONL shards
// on object storage, with a manifest describing counts and content digests.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/viant/esmtune/fasta"
	"github.com/viant/esmtune/tokenizer"
)

// residueAlphabet covers amino acid codes accepted without filtering.
const residueAlphabet = "ACDEFGHIKLMNPQRSTVWYXBUZO"

// Request configures a dataset build.
type Request struct {
	Name               string  // dataset name, used in the manifest
	Source             string  // FASTA path ("-" for stdin, .gz supported)
	OutputURL          string  // base URL for shards (file://, s3://, gs://)
	MaxLen             int     // token truncation length, 0 disables
	MinSeqLen          int     // drop sequences shorter than this many residues
	MaxSeqLen          int     // drop sequences longer than this, 0 disables
	ValidationFraction float64 // share of records routed to the validation shard
	CacheURL           string  // optional token cache location, reused across builds

	Logf func(format string, args ...any)
}

// Builder streams FASTA input into tokenized shards.
type Builder struct {
	fs  afs.Service
	tok *tokenizer.Tokenizer
}

// NewBuilder creates a Builder. A nil fs defaults to the standard AFS
// service.
func NewBuilder(fs afs.Service, tok *tokenizer.Tokenizer) *Builder {
	if fs == nil {
		fs = afs.New()
	}
	if tok == nil {
		tok = tokenizer.New()
	}
	return &Builder{fs: fs, tok: tok}
}

// Build streams the source, tokenizes valid records, partitions them
// deterministically and uploads train/validation JSONL shards plus the
// manifest. Records with residues outside the amino acid alphabet or
// violating the length bounds are skipped and counted.
func (b *Builder) Build(ctx context.Context, req Request) (*Manifest, error) {
	if strings.TrimSpace(req.OutputURL) == "" {
		return nil, fmt.Errorf("output URL is required")
	}
	if req.Source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if req.Name == "" {
		req.Name = path.Base(strings.TrimRight(req.OutputURL, "/"))
	}

	var (
		train      bytes.Buffer
		validation bytes.Buffer
		manifest   = Manifest{
			Name:               req.Name,
			CreatedAt:          time.Now().UTC(),
			BaseURL:            strings.TrimRight(req.OutputURL, "/"),
			MaxLen:             req.MaxLen,
			ValidationFraction: req.ValidationFraction,
		}
	)

	var cache *Cache
	if req.CacheURL != "" {
		var err error
		if cache, err = LoadCache(ctx, b.fs, req.CacheURL); err != nil {
			return nil, err
		}
	}

	err := fasta.StreamPath(ctx, req.Source, func(rec fasta.Record) error {
		seq := strings.ToUpper(strings.TrimSpace(rec.Seq))
		if reason := b.reject(seq, req); reason != "" {
			manifest.Skipped++
			if req.Logf != nil {
				req.Logf("dataset: skip %s: %s", rec.ID, reason)
			}
			return nil
		}
		record, err := b.tokenize(cache, rec.ID, seq, req.MaxLen)
		if err != nil {
			return err
		}
		line, err := json.Marshal(record)
		if err != nil {
			return err
		}
		split, err := AssignSplit(rec.ID, req.ValidationFraction)
		if err != nil {
			return err
		}
		buf := &train
		if split == SplitValidation {
			buf = &validation
			manifest.ValidationCount++
		} else {
			manifest.TrainCount++
		}
		buf.Write(line)
		buf.WriteByte('\n')
		return nil
	})
	if err != nil {
		return nil, err
	}
	if manifest.TrainCount == 0 {
		return nil, fmt.Errorf("no usable sequences in %s (%d skipped)", req.Source, manifest.Skipped)
	}

	manifest.TrainURL = url.Join(manifest.BaseURL, "train.jsonl")
	if manifest.TrainDigest, err = DigestHex(train.Bytes()); err != nil {
		return nil, err
	}
	if err := b.fs.Upload(ctx, manifest.TrainURL, file.DefaultFileOsMode, bytes.NewReader(train.Bytes())); err != nil {
		return nil, fmt.Errorf("upload train shard: %w", err)
	}
	if manifest.ValidationCount > 0 {
		manifest.ValidationURL = url.Join(manifest.BaseURL, "validation.jsonl")
		if manifest.ValidationDigest, err = DigestHex(validation.Bytes()); err != nil {
			return nil, err
		}
		if err := b.fs.Upload(ctx, manifest.ValidationURL, file.DefaultFileOsMode, bytes.NewReader(validation.Bytes())); err != nil {
			return nil, fmt.Errorf("upload validation shard: %w", err)
		}
	}
	if manifest.VocabDigest, err = vocabDigest(b.tok); err != nil {
		return nil, err
	}
	if err := manifest.Save(ctx, b.fs); err != nil {
		return nil, err
	}
	if cache != nil {
		if err := cache.Save(ctx, b.fs, req.CacheURL); err != nil {
			return nil, err
		}
	}
	if req.Logf != nil {
		req.Logf("dataset: %d train, %d validation, %d skipped -> %v",
			manifest.TrainCount, manifest.ValidationCount, manifest.Skipped, manifest.BaseURL)
	}
	return &manifest, nil
}

// tokenize encodes a sequence, consulting the cache first when one is
// configured.
func (b *Builder) tokenize(cache *Cache, id, seq string, maxLen int) (*Record, error) {
	var key uint64
	if cache != nil {
		var err error
		if key, err = cache.Key(id, seq, maxLen); err != nil {
			return nil, err
		}
		if rec, ok := cache.Lookup(key); ok {
			return rec, nil
		}
	}
	ids, err := b.tok.EncodeTruncated(seq, maxLen)
	if err != nil {
		return nil, fmt.Errorf("tokenize %s: %w", id, err)
	}
	rec := &Record{ID: id, Sequence: seq, InputIDs: ids}
	if cache != nil {
		if err := cache.Store(key, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (b *Builder) reject(seq string, req Request) string {
	if len(seq) == 0 {
		return "empty sequence"
	}
	if req.MinSeqLen > 0 && len(seq) < req.MinSeqLen {
		return fmt.Sprintf("shorter than %d residues", req.MinSeqLen)
	}
	if req.MaxSeqLen > 0 && len(seq) > req.MaxSeqLen {
		return fmt.Sprintf("longer than %d residues", req.MaxSeqLen)
	}
	for i := 0; i < len(seq); i++ {
		if !strings.ContainsRune(residueAlphabet, rune(seq[i])) {
			return fmt.Sprintf("invalid residue %q at position %d", seq[i], i)
		}
	}
	return ""
}

// vocabDigest fingerprints the tokenizer vocabulary so a manifest pins the
// exact token mapping used at build time.
func vocabDigest(tok *tokenizer.Tokenizer) (string, error) {
	var sb strings.Builder
	for id := 0; id < tok.VocabSize(); id++ {
		t, err := tok.Token(id)
		if err != nil {
			return "", err
		}
		sb.WriteString(t)
		sb.WriteByte('\n')
	}
	return DigestHex([]byte(sb.String()))
}
