package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/viant/afs"

	"github.com/viant/esmtune/tokenizer"
)

func writeFasta(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "input.fasta")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	source := writeFasta(t, dir, ">seq1\nMKTAYIAK\n>seq2\nMALWMRLL\n>bad\nMK1T\n>short\nM\n")
	outURL := filepath.Join(dir, "out")

	builder := NewBuilder(afs.New(), tokenizer.New())
	manifest, err := builder.Build(context.Background(), Request{
		Name:      "demo",
		Source:    source,
		OutputURL: outURL,
		MaxLen:    512,
		MinSeqLen: 2,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if manifest.TrainCount != 2 {
		t.Fatalf("expected 2 train records, got %d", manifest.TrainCount)
	}
	if manifest.Skipped != 2 {
		t.Fatalf("expected 2 skipped, got %d", manifest.Skipped)
	}
	if manifest.VocabDigest == "" || manifest.TrainDigest == "" {
		t.Fatalf("missing digests: %+v", manifest)
	}

	data, err := os.ReadFile(filepath.Join(outURL, "train.jsonl"))
	if err != nil {
		t.Fatalf("read shard: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 shard lines, got %d", len(lines))
	}
	var rec Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode shard line: %v", err)
	}
	if rec.ID != "seq1" || len(rec.InputIDs) != len(rec.Sequence)+2 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.InputIDs[0] != tokenizer.ClsID || rec.InputIDs[len(rec.InputIDs)-1] != tokenizer.EosID {
		t.Fatalf("missing control tokens: %v", rec.InputIDs)
	}

	// manifest round-trip + digest verification
	loaded, err := LoadManifest(context.Background(), afs.New(), outURL)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if loaded.TrainCount != manifest.TrainCount {
		t.Fatalf("manifest mismatch: %+v vs %+v", loaded, manifest)
	}
	if err := loaded.Verify(context.Background(), afs.New()); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestBuildValidationSplit(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, ">seq%03d\nMKTAYIAK\n", i)
	}
	source := writeFasta(t, dir, sb.String())
	outURL := filepath.Join(dir, "out")

	builder := NewBuilder(nil, nil)
	manifest, err := builder.Build(context.Background(), Request{
		Source:             source,
		OutputURL:          outURL,
		ValidationFraction: 0.2,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if manifest.ValidationCount == 0 {
		t.Fatal("expected some validation records")
	}
	if manifest.ValidationURL == "" || manifest.ValidationDigest == "" {
		t.Fatalf("validation shard not recorded: %+v", manifest)
	}

	// deterministic: a second build produces identical shard digests
	out2 := filepath.Join(dir, "out2")
	manifest2, err := builder.Build(context.Background(), Request{
		Source:             source,
		OutputURL:          out2,
		ValidationFraction: 0.2,
	})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if manifest2.TrainDigest != manifest.TrainDigest || manifest2.ValidationDigest != manifest.ValidationDigest {
		t.Fatal("expected deterministic shard digests")
	}
}

func TestBuildErrors(t *testing.T) {
	builder := NewBuilder(nil, nil)
	if _, err := builder.Build(context.Background(), Request{Source: "x.fasta"}); err == nil {
		t.Fatal("expected error for missing output URL")
	}
	if _, err := builder.Build(context.Background(), Request{OutputURL: "/tmp/out"}); err == nil {
		t.Fatal("expected error for missing source")
	}

	dir := t.TempDir()
	source := writeFasta(t, dir, ">only\nMK1T\n")
	if _, err := builder.Build(context.Background(), Request{Source: source, OutputURL: filepath.Join(dir, "out")}); err == nil {
		t.Fatal("expected error when every record is skipped")
	}
}

func TestBuildWithCache(t *testing.T) {
	dir := t.TempDir()
	source := writeFasta(t, dir, ">seq1\nMKTAYIAK\n>seq2\nMALWMRLL\n")
	cacheURL := filepath.Join(dir, "cache.json")

	builder := NewBuilder(nil, nil)
	first, err := builder.Build(context.Background(), Request{
		Source:    source,
		OutputURL: filepath.Join(dir, "out"),
		CacheURL:  cacheURL,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := os.Stat(cacheURL); err != nil {
		t.Fatalf("cache not persisted: %v", err)
	}

	second, err := builder.Build(context.Background(), Request{
		Source:    source,
		OutputURL: filepath.Join(dir, "out2"),
		CacheURL:  cacheURL,
	})
	if err != nil {
		t.Fatalf("cached build: %v", err)
	}
	if second.TrainDigest != first.TrainDigest {
		t.Fatal("cached build should produce identical shards")
	}
}
