package dataset

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/bintly"
)

// Cache memoizes tokenized records across builds, keyed by a digest of the
// record identity, sequence and truncation length. Entries are bintly-encoded
// and the cache persists as a JSON envelope of base64 values.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64][]byte
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64][]byte)}
}

// Key derives the cache key for a record.
func (c *Cache) Key(id, seq string, maxLen int) (uint64, error) {
	return Digest([]byte(id + "\x00" + seq + "\x00" + strconv.Itoa(maxLen)))
}

// Lookup returns the cached record for a key.
func (c *Cache) Lookup(key uint64) (*Record, bool) {
	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	readers := bintly.NewReaders()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		return nil, false
	}
	rec := &Record{}
	if err := rec.DecodeBinary(reader); err != nil {
		return nil, false
	}
	return rec, true
}

// Store caches a record under a key.
func (c *Cache) Store(key uint64, rec *Record) error {
	writers := bintly.NewWriters()
	writer := writers.Get()
	defer writers.Put(writer)
	if err := rec.EncodeBinary(writer); err != nil {
		return err
	}
	data := append([]byte(nil), writer.Bytes()...)
	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type cacheEnvelope struct {
	Entries map[string]string `json:"entries"`
}

// Save persists the cache to a URL.
func (c *Cache) Save(ctx context.Context, fs afs.Service, URL string) error {
	envelope := cacheEnvelope{Entries: make(map[string]string)}
	c.mu.RLock()
	for key, data := range c.entries {
		envelope.Entries[strconv.FormatUint(key, 16)] = base64.StdEncoding.EncodeToString(data)
	}
	c.mu.RUnlock()
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	if err := fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload cache %v: %w", URL, err)
	}
	return nil
}

// LoadCache restores a cache from a URL. A missing object yields an empty
// cache.
func LoadCache(ctx context.Context, fs afs.Service, URL string) (*Cache, error) {
	cache := NewCache()
	if ok, _ := fs.Exists(ctx, URL); !ok {
		return cache, nil
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("download cache %v: %w", URL, err)
	}
	var envelope cacheEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode cache %v: %w", URL, err)
	}
	for hexKey, b64 := range envelope.Entries {
		key, err := strconv.ParseUint(hexKey, 16, 64)
		if err != nil {
			continue
		}
		value, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			continue
		}
		cache.entries[key] = value
	}
	return cache, nil
}
