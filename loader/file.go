package loader

import (
	"context"
	"os"
)

// FileLoader implements Loader over a local file opened for reading. It is
// the loader cmd/internal/analyze wires up for the CLI verb.
type FileLoader struct {
	f *os.File
}

// OpenFile opens path and returns a FileLoader; the caller owns closing it.
func OpenFile(path string) (*FileLoader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapIOError(err)
	}
	return &FileLoader{f: f}, nil
}

func (l *FileLoader) Close() error {
	return l.f.Close()
}

func (l *FileLoader) ReadRange(_ context.Context, r Range) ([]byte, error) {
	buf := make([]byte, r.Length)
	if _, err := l.f.ReadAt(buf, r.Offset); err != nil {
		return nil, WrapIOError(err)
	}
	return buf, nil
}

func (l *FileLoader) ReadRanges(ctx context.Context, rs []Range) ([][]byte, error) {
	out := make([][]byte, len(rs))
	for i, r := range rs {
		b, err := l.ReadRange(ctx, r)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// MemLoader implements Loader over an in-memory byte slice; used by tests
// and by hosts that already have the whole capture buffered.
type MemLoader struct {
	data []byte
}

func NewMemLoader(data []byte) *MemLoader {
	return &MemLoader{data: data}
}

func (l *MemLoader) ReadRange(_ context.Context, r Range) ([]byte, error) {
	if r.Offset < 0 || r.Offset+r.Length > int64(len(l.data)) {
		return nil, WrapIOError(os.ErrInvalid)
	}
	return l.data[r.Offset : r.Offset+r.Length], nil
}

func (l *MemLoader) ReadRanges(ctx context.Context, rs []Range) ([][]byte, error) {
	out := make([][]byte, len(rs))
	for i, r := range rs {
		b, err := l.ReadRange(ctx, r)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
