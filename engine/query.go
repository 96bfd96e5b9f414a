package engine

import (
	"fmt"

	"github.com/sankooc/shark-go/model"
)

// Metadata returns the capture's top-level description.
func (e *Engine) Metadata() Metadata {
	e.mu.RLock()
	defer e.mu.RUnlock()

	md := Metadata{SessionID: e.sessionID, FrameCount: len(e.frames)}
	if e.demux != nil {
		md.FileType = e.demux.FileType()
		md.LinkType = e.demux.LinkType(0)
	}
	if len(e.frames) > 0 {
		first := e.frames[0].TimestampUs
		last := e.frames[len(e.frames)-1].TimestampUs
		md.SpanUs = last - first
	}
	return md
}

// Frames returns the [offset, offset+limit) window of frame summaries.
func (e *Engine) Frames(offset, limit int) []model.FrameSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if offset < 0 || offset >= len(e.frames) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(e.frames) {
		end = len(e.frames)
	}
	out := make([]model.FrameSummary, 0, end-offset)
	for _, f := range e.frames[offset:end] {
		out = append(out, f.Summary)
	}
	return out
}

// Frame triggers §4.6's on-demand detail materialization for one frame.
func (e *Engine) Frame(index int) (*model.FieldTree, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if index < 0 || index >= len(e.frames) {
		return nil, fmt.Errorf("frame index %d out of range", index)
	}
	return e.materializer.Materialize(index, e.frameBytes[index], e.entryTokens[index]), nil
}

// ResolveHost returns the textual form of an interned host reference, as
// produced by the capture's link/network-layer dissectors.
func (e *Engine) ResolveHost(ref model.Ref) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pool.Resolve(ref)
}

// Conversations returns every aggregate matching filter (nil matches all).
func (e *Engine) Conversations(filter func(model.Conversation) bool) []model.Conversation {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.convs.Rebuild(e.tracker.Connections())
	return e.convs.List(filter)
}

// Connections returns the [offset, offset+limit) window of connections
// belonging to the conversation at convIndex (as returned by
// Conversations, indexed by position in that call's result).
func (e *Engine) Connections(convIndex, offset, limit int) []model.Connection {
	e.mu.RLock()
	defer e.mu.RUnlock()

	convs := e.convs.List(nil)
	if convIndex < 0 || convIndex >= len(convs) {
		return nil
	}
	ids := convs[convIndex].ConnectionIDs
	if offset < 0 || offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(ids) {
		end = len(ids)
	}

	out := make([]model.Connection, 0, end-offset)
	for _, id := range ids[offset:end] {
		if conn, ok := e.tracker.Connection(id); ok {
			out = append(out, *conn)
		}
	}
	return out
}

// DNSList returns the [offset, offset+limit) window of the DNS table.
func (e *Engine) DNSList(offset, limit int) []model.DNSRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dns.List(offset, limit)
}

// DNSDetail returns one DNS table entry by ordinal.
func (e *Engine) DNSDetail(index int) (model.DNSRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dns.At(index)
}

// HTTPList returns the [offset, offset+limit) window of the HTTP table.
func (e *Engine) HTTPList(offset, limit int) []model.HTTPMessage {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.http.List(offset, limit)
}

// HTTPDetail returns one HTTP table entry by ordinal.
func (e *Engine) HTTPDetail(index int) (model.HTTPMessage, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.http.At(index)
}

// TLSList returns the [offset, offset+limit) window of the TLS table.
func (e *Engine) TLSList(offset, limit int) []model.TLSHandshakeRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tls.List(offset, limit)
}

// TLSDetail returns one TLS table entry by ordinal.
func (e *Engine) TLSDetail(index int) (model.TLSHandshakeRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tls.At(index)
}

// StatisticsKind selects which statistic Statistics returns.
type StatisticsKind int

const (
	StatFrameHistogram StatisticsKind = iota
)

// Statistics returns a histogram per §4.5's frame-count-over-time series;
// kind is reserved for future statistic types (only the frame histogram is
// specified).
func (e *Engine) Statistics(kind StatisticsKind) []model.HistogramBucket {
	e.mu.RLock()
	defer e.mu.RUnlock()

	summaries := make([]model.FrameSummary, len(e.frames))
	for i, f := range e.frames {
		summaries[i] = f.Summary
	}
	return e.hist.Build(summaries)
}
