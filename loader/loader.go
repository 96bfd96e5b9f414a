// Package loader defines the external resource-loader contract (§4.7): the
// engine holds no filesystem handle of its own and instead consumes a
// loader with two operations, a single range read and a batched range
// read, so the core stays decoupled from file, HTTP, or in-memory sources.
package loader

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrIO wraps any error a Loader implementation returns from the
// underlying resource; propagated to the engine's caller per §7.
var ErrIO = errors.New("IoError")

// Range identifies a byte range to read: [Offset, Offset+Length).
type Range struct {
	Offset int64
	Length int64
}

// Loader is the contract an engine host implements to supply capture
// bytes. Implementations must be safe for the engine's single ingest
// goroutine to call repeatedly; they need not be safe for concurrent use
// from multiple goroutines.
type Loader interface {
	// ReadRange returns exactly the bytes in r, or an error wrapping ErrIO.
	ReadRange(ctx context.Context, r Range) ([]byte, error)

	// ReadRanges is a batched form of ReadRange, useful for hosts where
	// issuing one round trip per range would be wasteful (e.g. an HTTP
	// range-request backend). The returned slice has one entry per
	// requested range, in the same order.
	ReadRanges(ctx context.Context, rs []Range) ([][]byte, error)
}

// WrapIOError wraps a lower-level error (e.g. from os.File.ReadAt or an
// HTTP client) as ErrIO so engine callers can test with errors.Is.
func WrapIOError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrIO, err.Error())
}
