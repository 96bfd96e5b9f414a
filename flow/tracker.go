// Package flow implements the TCP flow tracker (component F, §4.4): an
// unordered 5-tuple connection table with 32-bit wraparound sequence
// bookkeeping, in-order/retransmission/out-of-order/gap-filler segment
// classification, and restartable delivery of reassembled bytes to the
// application-layer stream dissectors (HTTP, TLS).
package flow

import (
	"sort"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/dissector/application"
	"github.com/sankooc/shark-go/model"
)

// defaultMaxReassemblyBytes is §6's default cap on buffered bytes per
// direction before a stream is aborted and counted in ReassemblyDrops (the
// engine marks the frame that crossed the cap with warn status).
const defaultMaxReassemblyBytes = 8 * 1024 * 1024

// Segment is one TCP segment observed by the dissector chain, handed to
// the tracker by the engine after transport.TCP runs.
type Segment struct {
	FrameIndex  int
	TimestampUs int64

	SrcHost, DstHost model.Ref
	SrcPort, DstPort int

	Seq, Ack uint32
	Flags    uint8
	Payload  []byte // aliases the ingest region; tracker only reads it
}

const (
	flagFIN = 0x01
	flagSYN = 0x02
	flagRST = 0x04
	flagACK = 0x10
)

// ProducedHTTP and ProducedTLS are emitted by Observe whenever stream
// delivery completes a message/record; the engine drains them into the
// corresponding cross-frame index (component G).
type ProducedHTTP struct {
	ConnectionID model.ConnectionID
	Message      *model.HTTPMessage
}

type ProducedTLS struct {
	ConnectionID model.ConnectionID
	Record       *model.TLSHandshakeRecord
}

// direction holds one side's reassembly state: the sequence bookkeeping
// and the pending out-of-order segment set, plus the application stream
// dissector's buffered-but-undelivered bytes and opaque state.
type direction struct {
	isnSet       bool
	nextExpected uint32

	pending map[uint32][]byte

	deliveryBuf []byte
	streamState dissector.StreamState
	aborted     bool

	stats model.DirectionStats
}

func newDirection() *direction {
	return &direction{pending: make(map[uint32][]byte)}
}

// connState is one tracked connection: its model record plus reassembly
// state for both directions.
type connState struct {
	conn *model.Connection

	dir1, dir2 direction // dir1 is EP1->EP2, dir2 is EP2->EP1

	streamDissector dissector.StreamDissector
}

func connKeyOf(aHost model.Ref, aPort int, bHost model.Ref, bPort int) connKey {
	if aHost < bHost || (aHost == bHost && aPort <= bPort) {
		return connKey{aHost, aPort, bHost, bPort}
	}
	return connKey{bHost, bPort, aHost, aPort}
}

type connKey struct {
	hostA model.Ref
	portA int
	hostB model.Ref
	portB int
}

// Tracker owns every connection this capture has observed, keyed by its
// unordered 5-tuple.
type Tracker struct {
	byKey              map[connKey]*connState
	byID               map[model.ConnectionID]*connState
	nextID             model.ConnectionID
	maxReassemblyBytes int

	producedHTTP []ProducedHTTP
	producedTLS  []ProducedTLS

	reassemblyDrops int
}

// New returns a Tracker with the given per-direction reassembly cap (0
// selects the §6 default of 8 MiB).
func New(maxReassemblyBytes int) *Tracker {
	if maxReassemblyBytes <= 0 {
		maxReassemblyBytes = defaultMaxReassemblyBytes
	}
	return &Tracker{
		byKey:              make(map[connKey]*connState),
		byID:               make(map[model.ConnectionID]*connState),
		maxReassemblyBytes: maxReassemblyBytes,
	}
}

func streamDissectorForPort(srcPort, dstPort int) (dissector.StreamDissector, bool) {
	for _, p := range []int{srcPort, dstPort} {
		switch p {
		case 80, 8080:
			return application.HTTP, true
		case 443:
			return application.TLS, true
		}
	}
	return nil, false
}

// Observe feeds one TCP segment into the tracker: it resolves the owning
// connection (creating one on first sight), classifies the segment,
// updates the state machine, and drives reassembly delivery. It returns
// the connection id the segment belongs to.
func (t *Tracker) Observe(seg Segment) model.ConnectionID {
	key := connKeyOf(seg.SrcHost, seg.SrcPort, seg.DstHost, seg.DstPort)
	cs, ok := t.byKey[key]
	if !ok {
		cs = t.newConnection(seg, key)
	}

	fromEP1 := cs.conn.EP1.Host == seg.SrcHost && cs.conn.EP1.Port == seg.SrcPort
	var dir, peer *direction
	if fromEP1 {
		dir, peer = &cs.dir1, &cs.dir2
	} else {
		dir, peer = &cs.dir2, &cs.dir1
	}
	_ = peer

	t.applyStateMachine(cs, seg)

	cs.conn.LastFrameIndex = seg.FrameIndex
	cs.conn.LastTimestampUs = seg.TimestampUs

	if len(seg.Payload) > 0 || seg.Flags&(flagSYN|flagFIN) != 0 {
		t.deliverSegment(cs, dir, seg)
	}

	cs.conn.Dir1Stats = cs.dir1.stats
	cs.conn.Dir2Stats = cs.dir2.stats
	cs.conn.Counters.Bytes = cs.dir1.stats.SegmentBytes + cs.dir2.stats.SegmentBytes

	return cs.conn.ID
}

func (t *Tracker) newConnection(seg Segment, key connKey) *connState {
	t.nextID++
	id := t.nextID

	conn := &model.Connection{
		ID:              id,
		EP1:             model.Endpoint{Host: seg.SrcHost, Port: seg.SrcPort},
		EP2:             model.Endpoint{Host: seg.DstHost, Port: seg.DstPort},
		State:           model.TCPNew,
		FirstFrameIndex: seg.FrameIndex,
		LastFrameIndex:  seg.FrameIndex,
		LastTimestampUs: seg.TimestampUs,
		Active:          true,
	}

	cs := &connState{
		conn: conn,
		dir1: *newDirection(),
		dir2: *newDirection(),
	}
	if sd, ok := streamDissectorForPort(seg.SrcPort, seg.DstPort); ok {
		cs.streamDissector = sd
		cs.dir1.streamState = sd.NewState()
		cs.dir2.streamState = sd.NewState()
	}

	t.byKey[key] = cs
	t.byID[id] = cs
	return cs
}

// applyStateMachine labels the observational TCP state machine described
// in §4.4: it never rejects a segment, only records what it saw.
func (t *Tracker) applyStateMachine(cs *connState, seg Segment) {
	c := cs.conn
	switch {
	case seg.Flags&flagRST != 0:
		c.State = model.TCPReset
		c.Active = false
	case c.State == model.TCPReset || c.State == model.TCPClosed:
		// terminal; leave as-is
	case seg.Flags&flagSYN != 0 && seg.Flags&flagACK == 0:
		c.State = model.TCPSynSent
	case seg.Flags&flagSYN != 0 && seg.Flags&flagACK != 0:
		c.State = model.TCPSynRcvd
	case seg.Flags&flagFIN != 0:
		if c.State == model.TCPEstablished || c.State == model.TCPSynRcvd {
			c.State = model.TCPFinWait
		}
	case c.State == model.TCPFinWait && seg.Flags&flagACK != 0:
		c.State = model.TCPClosed
		c.Active = false
	case c.State == model.TCPNew || c.State == model.TCPSynSent || c.State == model.TCPSynRcvd:
		c.State = model.TCPEstablished
	}
}

// deliverSegment classifies seg's payload against dir's sequence
// bookkeeping (in-order / retransmission / out-of-order / gap-filler, per
// §4.4) and, for every byte range that becomes contiguous with
// next_expected, offers it to the application stream dissector.
func (t *Tracker) deliverSegment(cs *connState, dir *direction, seg Segment) {
	c := cs.conn

	if !dir.isnSet {
		// First segment observed in this direction establishes the
		// sequence baseline, whether or not it carries SYN (mid-stream
		// captures start here too).
		dir.isnSet = true
		dir.nextExpected = seg.Seq
		if seg.Flags&flagSYN != 0 {
			dir.nextExpected++
		}
	}

	payload := seg.Payload
	seqStart := seg.Seq
	if seg.Flags&flagSYN != 0 {
		seqStart++ // SYN itself occupies one sequence number, not a data byte
	}

	c.Counters.Segments++
	dir.stats.Segments++

	switch {
	case payload == nil || len(payload) == 0:
		// pure control segment (SYN/FIN/ACK with no data); nothing to buffer.
		return

	case seqLessOrEqual(dir.nextExpected, seqStart) && seqStart == dir.nextExpected:
		// in-order
		dir.stats.SegmentBytes += len(payload)
		dir.nextExpected = seqStart + uint32(len(payload))
		t.appendAndFlush(cs, dir, seg, payload)

	case seqLess(seqStart, dir.nextExpected):
		end := seqStart + uint32(len(payload))
		if seqLessOrEqual(end, dir.nextExpected) {
			// retransmission: fully within already-delivered bytes.
			c.Counters.Retransmits++
			dir.stats.SegmentBytes += len(payload)
			return
		}
		// gap filler: keep the suffix beyond next_expected, treat the
		// overlap as duplicate.
		c.Counters.Duplicates++
		overlap := dir.nextExpected - seqStart
		suffix := payload[overlap:]
		dir.stats.SegmentBytes += len(payload)
		dir.nextExpected += uint32(len(suffix))
		t.appendAndFlush(cs, dir, seg, suffix)

	default:
		// out-of-order: park it, keyed by offset, and see if it connects
		// anything already pending.
		c.Counters.OutOfOrder++
		dir.stats.SegmentBytes += len(payload)
		dir.pending[seqStart] = append([]byte(nil), payload...)
		t.flushPending(cs, dir, seg)
	}
}

// appendAndFlush buffers newly in-order bytes for delivery, then flushes
// any pending out-of-order segments that are now contiguous.
func (t *Tracker) appendAndFlush(cs *connState, dir *direction, seg Segment, newBytes []byte) {
	t.bufferForDelivery(cs, dir, seg, newBytes)
	t.flushPending(cs, dir, seg)
}

// flushPending drains dir.pending in longest-contiguous-prefix order
// starting from next_expected.
func (t *Tracker) flushPending(cs *connState, dir *direction, seg Segment) {
	for {
		chunk, ok := dir.pending[dir.nextExpected]
		if !ok {
			return
		}
		delete(dir.pending, dir.nextExpected)
		dir.nextExpected += uint32(len(chunk))
		t.bufferForDelivery(cs, dir, seg, chunk)
	}
}

// bufferForDelivery appends newBytes to the direction's delivery buffer
// (enforcing the reassembly cap) and drives the stream dissector.
func (t *Tracker) bufferForDelivery(cs *connState, dir *direction, seg Segment, newBytes []byte) {
	if dir.aborted {
		return
	}
	dir.deliveryBuf = append(dir.deliveryBuf, newBytes...)

	if len(dir.deliveryBuf) > t.maxReassemblyBytes {
		dir.aborted = true
		dir.deliveryBuf = nil
		t.reassemblyDrops++
		return
	}

	if cs.streamDissector == nil {
		// No application dissector wired for this port pair; bytes are
		// still accounted for but never handed anywhere.
		dir.deliveryBuf = nil
		return
	}

	clientToServer := dir == &cs.dir1

	for {
		if len(dir.deliveryBuf) == 0 {
			return
		}
		result := cs.streamDissector.Feed(dir.streamState, dir.deliveryBuf, dissector.StreamContext{
			ConnectionID:   cs.conn.ID,
			TriggerFrame:   seg.FrameIndex,
			TimestampUs:    seg.TimestampUs,
			ClientToServer: clientToServer,
		})

		switch result.Action {
		case dissector.NeedMoreData:
			return
		case dissector.AbortStream:
			dir.aborted = true
			dir.deliveryBuf = nil
			return
		case dissector.MessageComplete:
			dir.stats.DeliveredBytes += result.Consumed
			if result.Consumed >= len(dir.deliveryBuf) {
				dir.deliveryBuf = nil
			} else {
				dir.deliveryBuf = dir.deliveryBuf[result.Consumed:]
			}
			t.collectProduced(cs, result.Produced)
			if len(dir.deliveryBuf) == 0 {
				return
			}
			// loop: try to frame another message out of the remaining tail.
		}
	}
}

func (t *Tracker) collectProduced(cs *connState, produced interface{}) {
	switch v := produced.(type) {
	case *model.HTTPMessage:
		t.producedHTTP = append(t.producedHTTP, ProducedHTTP{ConnectionID: cs.conn.ID, Message: v})
	case *model.TLSHandshakeRecord:
		t.producedTLS = append(t.producedTLS, ProducedTLS{ConnectionID: cs.conn.ID, Record: v})
	}
}

// DrainHTTP returns and clears every HTTP message completed since the last
// drain.
func (t *Tracker) DrainHTTP() []ProducedHTTP {
	out := t.producedHTTP
	t.producedHTTP = nil
	return out
}

// DrainTLS returns and clears every TLS handshake record completed since
// the last drain.
func (t *Tracker) DrainTLS() []ProducedTLS {
	out := t.producedTLS
	t.producedTLS = nil
	return out
}

// Connection returns the connection record for id, if it has been
// observed.
func (t *Tracker) Connection(id model.ConnectionID) (*model.Connection, bool) {
	cs, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return cs.conn, true
}

// Connections returns every connection record observed so far, ordered by
// id (stable, since ids are assigned in first-sight order).
func (t *Tracker) Connections() []*model.Connection {
	out := make([]*model.Connection, 0, len(t.byID))
	for _, cs := range t.byID {
		out = append(out, cs.conn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveConnectionCount returns how many tracked connections have not yet
// reached a terminal state (TCPReset/TCPClosed).
func (t *Tracker) ActiveConnectionCount() int {
	n := 0
	for _, cs := range t.byID {
		if cs.conn.Active {
			n++
		}
	}
	return n
}

// ReassemblyDrops returns the number of streams aborted so far for
// exceeding the per-direction reassembly cap.
func (t *Tracker) ReassemblyDrops() int {
	return t.reassemblyDrops
}
