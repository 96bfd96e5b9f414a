// Package model holds the data types shared by every component of the
// engine: frames, fields, endpoints, connections, conversations, and the
// cross-frame record tables (DNS, HTTP, TLS). Nothing in this package
// parses bytes; it is the shape that the dissectors and flow tracker
// populate.
package model

import (
	"fmt"
	"time"
)

// Status classifies how cleanly a frame or field was decoded.
type Status int

const (
	StatusInfo Status = iota
	StatusWarn
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusWarn:
		return "warn"
	case StatusError:
		return "error"
	default:
		return "info"
	}
}

// Ref is a stable, content-hashed reference into the intern pool. Two Refs
// compare equal iff their source bytes compared equal at intern time.
type Ref uint64

// FrameSummary is the cached, eagerly computed one-line description of a
// frame. It never changes after dissection finalizes it.
type FrameSummary struct {
	Index         int
	TimestampUs   int64
	Source        Ref
	Destination   Ref
	TopProtocol   string
	Info          string
	Status        Status
	CapturedLen   int
	OriginalLen   int
}

// Frame is one captured packet as produced by the demuxer. ByteOffset and
// ByteLength locate its raw bytes within the ingest region; Summary is
// finalized once and never mutated again. ConnectionID and a handful of
// cross-index back-references are filled in as dissection produces them.
type Frame struct {
	Index       int
	TimestampUs int64
	ByteOffset  int64
	ByteLength  int
	CapturedLen int
	OriginalLen int

	Summary FrameSummary

	// Populated by the TCP flow tracker when this frame carries a TCP
	// segment; zero value otherwise.
	ConnectionID ConnectionID

	// Indices into the cross-frame tables this frame contributed to, if
	// any. Resolving them is guaranteed to succeed for frames still
	// present in the model (§3 invariant).
	DNSRecordIndexes []int
	HTTPMessageIndex int
	HasHTTPMessage   bool
	TLSRecordIndexes []int
}

// Field is one node in a frame's decode tree: a byte range plus a summary,
// and optionally children and a semantic tag. The invariant that sibling
// ranges are sorted and disjoint and contained within the parent's range is
// maintained by the dissectors that build the tree (through helpers such as
// dissector.FieldAt), not by this type itself.
type Field struct {
	Offset   int
	Length   int
	Summary  string
	Tag      string
	Children []*Field
}

// End returns the offset one past the last byte this field covers.
func (f *Field) End() int { return f.Offset + f.Length }

// FieldTree is the full, lazily materialized decode tree for a single
// frame, rooted at one node per protocol layer encountered.
type FieldTree struct {
	FrameIndex int
	Roots      []*Field
}

// Endpoint is a host label plus an optional port. Link/network layer
// endpoints carry no port.
type Endpoint struct {
	Host Ref
	Port int // 0 when not applicable
}

func (e Endpoint) String() string {
	if e.Port == 0 {
		return fmt.Sprintf("host#%d", e.Host)
	}
	return fmt.Sprintf("host#%d:%d", e.Host, e.Port)
}

// TCPState is the observational state machine the flow tracker assigns to
// a connection. It labels what was observed; it does not enforce RFC 793
// correctness.
type TCPState int

const (
	TCPNew TCPState = iota
	TCPSynSent
	TCPSynRcvd
	TCPEstablished
	TCPFinWait
	TCPClosed
	TCPReset
)

func (s TCPState) String() string {
	switch s {
	case TCPSynSent:
		return "SYN_SENT"
	case TCPSynRcvd:
		return "SYN_RCVD"
	case TCPEstablished:
		return "ESTABLISHED"
	case TCPFinWait:
		return "FIN_WAIT"
	case TCPClosed:
		return "CLOSED"
	case TCPReset:
		return "RESET"
	default:
		return "NEW"
	}
}

// ConnectionID identifies a single TCP 5-tuple connection record. It is
// stable for the lifetime of the model even after the connection is
// retired from the tracker's active table.
type ConnectionID uint64

// ConnectionCounters tallies what the tracker observed about a connection.
type ConnectionCounters struct {
	Segments     int
	Bytes        int
	Retransmits  int
	Duplicates   int
	OutOfOrder   int
}

// DirectionStats tracks one direction's byte accounting for a connection.
type DirectionStats struct {
	Segments        int // total segments observed in this direction
	SegmentBytes    int // total payload bytes seen, including dupes/retransmits
	DeliveredBytes  int // bytes actually handed to the application dissector
}

// Connection is the unordered 5-tuple {proto=TCP, ep1, ep2} record
// specified in §3. EP1/EP2 are not "source"/"destination" — the pair is
// unordered; Dir1Stats/Dir2Stats track the two directions consistently
// with EP1->EP2 and EP2->EP1 respectively.
type Connection struct {
	ID ConnectionID

	EP1, EP2 Endpoint

	State TCPState

	Dir1Stats DirectionStats
	Dir2Stats DirectionStats

	Counters ConnectionCounters

	FirstFrameIndex int
	LastFrameIndex  int
	LastTimestampUs int64

	// Active is false once the connection has been retired from the
	// tracker's active table (FIN/FIN-ACK completion or reset). The
	// record itself is retained regardless.
	Active bool
}

// ConversationKey is the port-agnostic host pair a Conversation aggregates
// over.
type ConversationKey struct {
	HostA, HostB Ref
}

// Conversation aggregates every Connection sharing an (unordered) endpoint
// host pair, regardless of port.
type Conversation struct {
	Key ConversationKey

	ConnectionIDs []ConnectionID

	ABytes, BBytes     int64
	ASegments, BSegments int64

	// ThroughputAccuracy is delivered bytes / segment bytes across every
	// connection in the aggregate; 1.0 means every byte seen was
	// eventually delivered to an application dissector.
	ThroughputAccuracy float64
}

// DNSRecord is one parsed DNS message's worth of information: a query plus
// its answers, immutable after creation.
type DNSRecord struct {
	FrameIndex    int
	TimestampUs   int64
	TransactionID uint16
	QueryName     string
	QueryType     string
	QueryClass    string
	Answers       []DNSAnswer
}

// DNSAnswer is one resource record in a DNS response.
type DNSAnswer struct {
	Name    string
	Type    string
	Class   string
	TTL     uint32
	Content string
}

// HTTPDirection distinguishes the two halves of an HTTP exchange.
type HTTPDirection int

const (
	HTTPRequest HTTPDirection = iota
	HTTPResponse
)

// HTTPHeader preserves header order and case as seen on the wire;
// HTTP header names are case-insensitive and may repeat.
type HTTPHeader struct {
	Name  string
	Value string
}

// HTTPMessage is one request or response half, finalized only once the
// framing layer (Content-Length or chunked terminator) indicates
// completion.
type HTTPMessage struct {
	ConnectionID ConnectionID
	Direction    HTTPDirection

	FirstFrameIndex int
	LastFrameIndex  int

	Method     string // requests only
	Path       string // requests only
	StatusCode int    // responses only
	StatusText string // responses only

	Headers         []HTTPHeader
	ContentType     string
	ContentEncoding string
	Chunked         bool

	// Body holds the decoded payload: decompressed if ContentEncoding named
	// a supported scheme, raw otherwise.
	Body []byte
}

// TLSHandshakeRecord is one TLS record of content type 22 (handshake)
// recognised during TCP stream delivery, with the subset of fields
// extractable without full certificate ASN.1 decoding left abstract.
type TLSHandshakeRecord struct {
	ConnectionID ConnectionID
	FrameIndex   int

	ContentType    uint8
	Version        uint16
	HandshakeType  uint8

	SNI                string
	OfferedCipherSuites []uint16
	ChosenCipherSuite   uint16

	CertificateSubject string
	CertificateIssuer  string
	CertificateValidFrom time.Time
	CertificateValidTo   time.Time
}

// HistogramBucket is one bucket of a frame-count-over-time series.
type HistogramBucket struct {
	StartUs int64
	EndUs   int64
	Counts  map[string]int // top protocol -> frame count
}
