// Package dissector implements the protocol dissector registry (component
// D): a chain of pure functions keyed by "next protocol" tokens, each
// producing a field subtree plus the token for whatever comes next. The
// registry itself never understands any protocol; every dissector is
// registered from the link/network/transport/application subpackages.
package dissector

import (
	"fmt"

	"github.com/sankooc/shark-go/intern"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// Token names the next dissector to hand off to. TokenNone terminates the
// chain cleanly; an unrecognised token terminates it with a warning.
type Token string

const TokenNone Token = "none"

// Func is the shape every dissector implements: read from r (a view bounded
// to this layer's remaining bytes), record whatever it learns into ctx, and
// return the field subtree rooted at one summary node plus the token for
// the next layer.
type Func func(r *reader.Reader, ctx *Context) (*model.Field, Token, error)

// Context threads cross-layer state through one frame's dissection: the
// intern pool, the collect-fields switch (component I uses false for the
// eager summary pass and true for on-demand detail), the frame's info line
// and status (last writer wins per §4.3), and the addressing/transport
// hints later layers need (flow lookup, application dispatch).
type Context struct {
	Pool *intern.Pool

	// CollectFields gates whether dissectors build full child field trees.
	// When false, a dissector still returns its one summary root node (the
	// eager pass needs top-level protocol and byte range) but may skip
	// building expensive per-field children.
	CollectFields bool

	Info   string
	Status model.Status

	// Addressing accumulated by link/network layers, consumed by the flow
	// tracker and by application dissectors that need the 5-tuple.
	SrcHost, DstHost model.Ref
	SrcPort, DstPort int

	// TransportProto names the transport dissector that ran ("tcp", "udp",
	// "icmp", "icmpv6", ""), used to pick an application-layer dispatch
	// table.
	TransportProto string

	// LinkType is the capture-declared link type, used by the registry's
	// entry point to pick the first dissector in the chain.
	LinkType int

	// DNS is populated by the DNS dissector when it parses a message; the
	// caller (engine) drains it after dissection to populate the cross-frame
	// DNS index (component G). No dissector sets TLS: HTTP and TLS records
	// come from the flow tracker's stream dissectors instead.
	DNS *model.DNSRecord
	TLS *model.TLSHandshakeRecord

	// TCP segment bookkeeping, filled in by transport.TCP and consumed by
	// the engine to hand the payload to the flow tracker (component F).
	// TCPSeen is false for every other transport.
	TCPSeen          bool
	TCPSeq, TCPAck   uint32
	TCPFlags         uint8
	TCPPayloadOffset int
	TCPPayloadLength int
}

// SetInfo implements "last writer wins": called by every layer that has an
// opinion about the frame's one-line info string.
func (c *Context) SetInfo(format string, args ...interface{}) {
	c.Info = fmt.Sprintf(format, args...)
}

// Warn escalates the frame's status to at least warn without overriding an
// existing error.
func (c *Context) Warn() {
	if c.Status == model.StatusInfo {
		c.Status = model.StatusWarn
	}
}

// Fail escalates the frame's status to error.
func (c *Context) Fail() {
	c.Status = model.StatusError
}

// Registry maps next-protocol tokens to dissectors. It is built once at
// startup (see Default) and shared read-only across every frame.
type Registry struct {
	byToken map[Token]Func
}

func NewRegistry() *Registry {
	return &Registry{byToken: make(map[Token]Func)}
}

func (reg *Registry) Register(token Token, fn Func) {
	reg.byToken[token] = fn
}

// Dispatch runs the chain starting at entry, accumulating every layer's
// root field into one flat slice (the frame's FieldTree.Roots, per §3).
// Dissection stops at TokenNone, at an unrecognised token (a synthetic
// warning field is appended in that case, per §4.3's "unknown token
// terminates with a warning"), or when a layer returns an error. Running
// out of bytes does not stop the loop by itself: the next layer's read
// fails and that error ends the chain.
func (reg *Registry) Dispatch(entry Token, r *reader.Reader, ctx *Context) []*model.Field {
	var roots []*model.Field
	token := entry

	for token != TokenNone {
		fn, ok := reg.byToken[token]
		if !ok {
			ctx.Warn()
			roots = append(roots, &model.Field{
				Offset:  r.Pos(),
				Length:  0,
				Summary: fmt.Sprintf("Unknown next-protocol token %q", token),
				Tag:     "unknown",
			})
			break
		}

		field, next, err := dispatchOne(fn, r, ctx)
		if field != nil {
			roots = append(roots, field)
		}
		if err != nil {
			ctx.Fail()
			break
		}
		if next == "" {
			break
		}
		token = next
	}

	return roots
}

// dispatchOne runs a single dissector with a panic barrier: a panicking
// dissector marks the frame as error and stops the chain at that layer
// rather than aborting the whole ingest (per §7's propagation policy).
func dispatchOne(fn Func, r *reader.Reader, ctx *Context) (field *model.Field, next Token, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("dissector panic: %v", rec)
		}
	}()
	field, next, err = fn(r, ctx)
	return
}

// Child is a small helper for building a field whose byte range is
// exactly [start, r.Pos()) — the common "record the range I just
// consumed" pattern every dissector uses.
func Child(r *reader.Reader, start int, summary string) *model.Field {
	return &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: summary,
	}
}

// ChildTag is Child with a semantic tag attached (used by detail views to
// highlight e.g. "src-ip", "checksum").
func ChildTag(r *reader.Reader, start int, tag, summary string) *model.Field {
	f := Child(r, start, summary)
	f.Tag = tag
	return f
}

// FieldAt builds a field with an explicit [offset, offset+length) range.
// Use this instead of ChildTag whenever a dissector records several
// sibling fields out of one already-consumed header: each sibling needs
// its own true byte span rather than reusing the reader's current
// position, or the ranges end up identical and overlapping (§3's sibling
// ranges must be sorted and disjoint).
func FieldAt(offset, length int, tag, summary string) *model.Field {
	return &model.Field{
		Offset:  offset,
		Length:  length,
		Summary: summary,
		Tag:     tag,
	}
}
