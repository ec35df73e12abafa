// Package files reads and writes uploaded activity files.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when the named file does not exist
var ErrNotFound = errors.New("file not found")

// ErrTooLarge is returned by ReadAll when a file exceeds the size limit
var ErrTooLarge = errors.New("file exceeds size limit")

// DefaultMaxSize bounds activity files read into memory
const DefaultMaxSize = 64 << 20

// Source opens stored activity files by name
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Sink stores activity files by name
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// ReadAll reads a whole file from src, failing once it passes limit bytes.
// A non-positive limit uses DefaultMaxSize.
func ReadAll(ctx context.Context, src Source, name string, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}

	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w (%d bytes)", name, ErrTooLarge, limit)
	}
	return data, nil
}
