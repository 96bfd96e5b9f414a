package reader

import "github.com/pkg/errors"

// ErrEndOfStream is returned by every read operation when the remaining
// region is shorter than requested. There is no silent truncation: callers
// either get the full read they asked for, or this error.
var ErrEndOfStream = errors.New("EndOfStream")

// IsEndOfStream reports whether err is (or wraps) ErrEndOfStream.
func IsEndOfStream(err error) bool {
	return errors.Is(err, ErrEndOfStream)
}
