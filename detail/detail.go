// Package detail implements the field-detail materializer (component I,
// §4.6): on demand, for a single frame, it re-runs the dissector chain with
// field collection enabled to build the full byte-range tree. The eager
// summary pass (component D/E during ingest) runs the same chain with
// field collection disabled, so steady-state memory stays proportional to
// summaries rather than full trees for every frame.
package detail

import (
	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/intern"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// Materializer re-runs dissection for one frame at a time.
type Materializer struct {
	registry *dissector.Registry
	pool     *intern.Pool
}

func New(registry *dissector.Registry, pool *intern.Pool) *Materializer {
	return &Materializer{registry: registry, pool: pool}
}

// Materialize builds the full field tree for one frame: region is the
// frame's raw bytes (already sliced to [ByteOffset, ByteOffset+ByteLength)
// by the caller) and entry is the link-layer token chosen for this frame
// when it was first ingested.
func (m *Materializer) Materialize(frameIndex int, region []byte, entry dissector.Token) *model.FieldTree {
	r := reader.New(region)
	ctx := &dissector.Context{
		Pool:          m.pool,
		CollectFields: true,
	}
	roots := m.registry.Dispatch(entry, r, ctx)
	return &model.FieldTree{FrameIndex: frameIndex, Roots: roots}
}
