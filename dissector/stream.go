package dissector

import "github.com/sankooc/shark-go/model"

// StreamAction is what a stream dissector decides to do with the bytes it
// was just handed, per §4.4's restartable delivery protocol.
type StreamAction int

const (
	// NeedMoreData means none of the buffered bytes formed a complete
	// message; the flow tracker keeps them buffered and will call Feed
	// again once more bytes arrive.
	NeedMoreData StreamAction = iota
	// MessageComplete means a message was recognised in the first
	// Consumed bytes; the flow tracker trims that prefix and retains any
	// tail for the next Feed call.
	MessageComplete
	// AbortStream means this direction is no longer parseable; the flow
	// tracker discards all further bytes in that direction without
	// calling Feed again.
	AbortStream
)

// StreamResult is a stream dissector's verdict for one Feed call.
type StreamResult struct {
	Action   StreamAction
	Consumed int // valid when Action == MessageComplete
	Fields   []*model.Field

	// Produced is a *model.HTTPMessage or *model.TLSHandshakeRecord when
	// this Feed call completed one (nil otherwise); the flow tracker hands
	// it to the engine for the corresponding cross-frame index.
	Produced interface{}
}

// StreamState is per-connection-per-direction state a stream dissector
// keeps between Feed calls. Each StreamDissector defines its own concrete
// type; the HTTP and TLS dissectors' state types are empty, since the flow
// tracker re-feeds every still-buffered byte on each call.
type StreamState interface{}

// StreamContext carries the connection/frame bookkeeping a stream
// dissector needs to stamp onto the records it produces; unlike Context it
// is not scoped to a single frame, since one Feed call's bytes may have
// been reassembled from several frames.
type StreamContext struct {
	ConnectionID    model.ConnectionID
	TriggerFrame    int
	TimestampUs     int64
	ClientToServer  bool // true when this is the direction that opened the connection
}

// StreamDissector is the contract an application protocol riding over TCP
// reassembly implements (§4.4): HTTP and TLS in this engine.
type StreamDissector interface {
	// NewState returns a fresh, direction-scoped state value.
	NewState() StreamState

	// Feed is called with every byte currently buffered for this
	// direction (the tracker's delivery buffer, not just newly arrived
	// bytes) each time new contiguous bytes become available.
	Feed(state StreamState, data []byte, sctx StreamContext) StreamResult
}
