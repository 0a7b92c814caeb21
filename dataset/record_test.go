package dataset

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/viant/afs"
	"github.com/viant/bintly"
)

func TestRecordEncodeDecodeBinary(t *testing.T) {
	original := &Record{ID: "sp|P01308|INS_HUMAN", Sequence: "MKT", InputIDs: []int{0, 20, 15, 11, 2}}

	writers := bintly.NewWriters()
	writer := writers.Get()
	defer writers.Put(writer)
	if err := original.EncodeBinary(writer); err != nil {
		t.Fatalf("encode: %v", err)
	}

	readers := bintly.NewReaders()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(writer.Bytes()); err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	decoded := &Record{}
	if err := decoded.DecodeBinary(reader); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round trip mismatch: %+v vs %+v", original, decoded)
	}
}

func TestCacheLookupStore(t *testing.T) {
	cache := NewCache()
	key, err := cache.Key("seq1", "MKT", 512)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Lookup(key); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	rec := &Record{ID: "seq1", Sequence: "MKT", InputIDs: []int{0, 20, 15, 11, 2}}
	if err := cache.Store(key, rec); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, ok := cache.Lookup(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !reflect.DeepEqual(rec, got) {
		t.Fatalf("mismatch: %+v vs %+v", rec, got)
	}

	// different truncation length yields a different key
	other, err := cache.Key("seq1", "MKT", 128)
	if err != nil {
		t.Fatal(err)
	}
	if other == key {
		t.Fatal("expected distinct keys for distinct max lengths")
	}
}

func TestCacheSaveLoad(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := filepath.Join(t.TempDir(), "cache.json")

	cache := NewCache()
	key, _ := cache.Key("seq1", "MKT", 512)
	if err := cache.Store(key, &Record{ID: "seq1", Sequence: "MKT", InputIDs: []int{0, 20, 15, 11, 2}}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Save(ctx, fs, URL); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadCache(ctx, fs, URL)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", loaded.Len())
	}
	if _, ok := loaded.Lookup(key); !ok {
		t.Fatal("expected entry to survive persistence")
	}

	// missing URL yields an empty cache
	empty, err := LoadCache(ctx, fs, filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if empty.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", empty.Len())
	}
}
