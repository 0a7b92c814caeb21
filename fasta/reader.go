// Package fasta provides a streaming FASTA reader for protein sequence input.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrStop ends streaming early when returned from an emit callback. Stream
// treats it as a clean stop, not an error.
var ErrStop = errors.New("fasta: stop")

// Record is a single FASTA entry.
type Record struct {
	ID          string
	Description string
	Seq         string
}

// Stream parses FASTA from r and invokes emit for each record. It is
// cancelable: the scan stops promptly once ctx is done, even mid-record.
func Stream(ctx context.Context, r io.Reader, emit func(Record) error) error {
	sc := bufio.NewScanner(r)
	const maxLine = 16 * 1024 * 1024
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		rec Record
		seq = make([]byte, 0, 4096)
		has bool
	)
	flush := func() error {
		if !has {
			return nil
		}
		rec.Seq = string(seq)
		seq = seq[:0]
		return emit(rec)
	}
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
			id, desc := parseHeader(line[1:])
			rec = Record{ID: id, Description: desc}
			has = true
			continue
		}
		if !has {
			return fmt.Errorf("fasta: sequence data before header")
		}
		seq = append(seq, bytes.TrimSpace(line)...)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fasta scan: %w", err)
	}
	if err := flush(); err != nil && !errors.Is(err, ErrStop) {
		return err
	}
	return nil
}

// StreamPath streams records from a file path. "-" reads stdin; a .gz suffix
// enables transparent decompression.
func StreamPath(ctx context.Context, path string, emit func(Record) error) error {
	rc, err := open(path)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	return Stream(ctx, rc, emit)
}

// ReadAll collects every record from r.
func ReadAll(ctx context.Context, r io.Reader) ([]Record, error) {
	var out []Record
	if err := Stream(ctx, r, func(rec Record) error {
		out = append(out, rec)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("fasta gzip: %w", err)
		}
		return &gzipReadCloser{zr: zr, f: f}, nil
	}
	return f, nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

func parseHeader(h []byte) (id, desc string) {
	text := strings.TrimSpace(string(h))
	if idx := strings.IndexAny(text, " \t"); idx >= 0 {
		return text[:idx], strings.TrimSpace(text[idx+1:])
	}
	return text, ""
}
