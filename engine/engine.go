// Package engine implements the façade (component H, §4.8): incremental
// ingest over an append-only region, the full query surface, and the
// single-writer/multiple-reader snapshot model described in §5.
package engine

import (
	"errors"
	"strings"
	"sync"
	"unsafe"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/sankooc/shark-go/capture"
	"github.com/sankooc/shark-go/detail"
	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/dissector/link"
	"github.com/sankooc/shark-go/flow"
	"github.com/sankooc/shark-go/index"
	"github.com/sankooc/shark-go/intern"
	"github.com/sankooc/shark-go/metrics"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// Progress is returned by Ingest: how much the engine has consumed so far.
type Progress struct {
	BytesAppended int64
	BytesParsed   int64
	FramesProduced int
}

// Metadata summarises the capture as a whole.
type Metadata struct {
	SessionID  string
	FileType   string
	LinkType   int
	FrameCount int
	SpanUs     int64
}

// Engine is the single-writer, multiple-reader façade over one capture.
// Ingest is the only writer of capture state; every query method takes the
// reader lock (§5) except Conversations, which rebuilds the conversation
// aggregates under the writer lock.
type Engine struct {
	mu sync.RWMutex

	opts Options

	// sessionID identifies this engine instance for log correlation; it has
	// no bearing on capture semantics.
	sessionID string

	region    []byte
	parsedPos int
	demux     capture.Demuxer

	pool         *intern.Pool
	registry     *dissector.Registry
	tracker      *flow.Tracker
	materializer *detail.Materializer

	frames      []*model.Frame
	frameBytes  [][]byte
	entryTokens []dissector.Token

	dns   *index.DNSTable
	http  *index.HTTPTable
	tls   *index.TLSTable
	convs *index.Conversations
	hist  *index.Histogram

	metricsCollector       *metrics.Collector
	drainedReassemblyDrops int

	errs *multierror.Error
}

// New constructs an Engine with opts (use DefaultOptions for the §6
// defaults).
func New(opts Options) *Engine {
	pool := intern.New()
	registry := defaultRegistry()
	return &Engine{
		opts:         opts,
		sessionID:    uuid.NewString(),
		pool:         pool,
		registry:     registry,
		tracker:      flow.New(opts.MaxReassemblyBytesPerDirection),
		materializer: detail.New(registry, pool),
		dns:          index.NewDNSTable(),
		http:         index.NewHTTPTable(),
		tls:          index.NewTLSTable(),
		convs:            index.NewConversations(),
		hist:             index.NewHistogram(opts.HistogramBuckets),
		metricsCollector: metrics.NewCollector(),
	}
}

// Metrics returns the Prometheus collector tracking this engine's
// counters; register it with a prometheus.Registry to expose it.
func (e *Engine) Metrics() *metrics.Collector {
	return e.metricsCollector
}

// Ingest appends bytes to the engine's internal region and drives the
// demuxer forward until it signals "need more data" (§4.8). Only
// UnsupportedFileType and IoError are surfaced as engine-level failures
// (§7); every other recoverable condition is recorded against the
// offending frame and Ingest continues.
func (e *Engine) Ingest(bytes []byte) (Progress, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.region = append(e.region, bytes...)

	r := reader.New(e.region)
	if err := r.SeekTo(e.parsedPos); err != nil {
		return e.progressLocked(), err
	}

	if e.demux == nil {
		d, err := capture.Detect(r)
		if err != nil {
			if errors.Is(err, reader.ErrEndOfStream) {
				return e.progressLocked(), nil
			}
			return e.progressLocked(), err
		}
		e.demux = d
		e.parsedPos = r.Pos()
	}

	for {
		raw, err := e.demux.Next(r)
		if err != nil {
			if errors.Is(err, reader.ErrEndOfStream) {
				break
			}
			e.errs = multierror.Append(e.errs, err)
			break
		}
		e.parsedPos = r.Pos()
		e.ingestFrame(raw)
	}

	e.metricsCollector.SetFramesParsed(len(e.frames))
	e.metricsCollector.SetBytesIngested(int64(len(e.region)))
	e.metricsCollector.SetActiveConnections(e.tracker.ActiveConnectionCount())
	for i := 0; i < e.tracker.ReassemblyDrops()-e.drainedReassemblyDrops; i++ {
		e.metricsCollector.IncReassemblyDrop()
	}
	e.drainedReassemblyDrops = e.tracker.ReassemblyDrops()

	return e.progressLocked(), nil
}

func (e *Engine) progressLocked() Progress {
	return Progress{
		BytesAppended:  int64(len(e.region)),
		BytesParsed:    int64(e.parsedPos),
		FramesProduced: len(e.frames),
	}
}

// ingestFrame runs the dissector chain for one raw frame, updates the
// cross-frame indices, and appends the frame to the model.
func (e *Engine) ingestFrame(raw *capture.RawFrame) {
	idx := len(e.frames)

	entry := link.SelectEntry(raw.LinkType, raw.Data)

	ctx := &dissector.Context{
		Pool:          e.pool,
		CollectFields: e.opts.ResolveAll,
		LinkType:      raw.LinkType,
	}

	fr := reader.New(raw.Data)
	roots := e.registry.Dispatch(entry, fr, ctx)

	status := ctx.Status
	if raw.Truncated && status == model.StatusInfo {
		status = model.StatusWarn
	}

	frame := &model.Frame{
		Index:        idx,
		TimestampUs:  raw.TimestampUs,
		ByteOffset:   byteOffsetOf(e.region, raw.Data),
		ByteLength:   len(raw.Data),
		CapturedLen:  raw.CapturedLen,
		OriginalLen:  raw.OriginalLen,
	}
	frame.Summary = model.FrameSummary{
		Index:       idx,
		TimestampUs: raw.TimestampUs,
		Source:      ctx.SrcHost,
		Destination: ctx.DstHost,
		TopProtocol: topProtocolOf(roots),
		Info:        ctx.Info,
		Status:      status,
		CapturedLen: raw.CapturedLen,
		OriginalLen: raw.OriginalLen,
	}

	if ctx.DNS != nil {
		i := e.dns.Append(*ctx.DNS)
		frame.DNSRecordIndexes = append(frame.DNSRecordIndexes, i)
	}

	if ctx.TCPSeen {
		payload := sliceBounded(raw.Data, ctx.TCPPayloadOffset, ctx.TCPPayloadLength)
		seg := flow.Segment{
			FrameIndex:  idx,
			TimestampUs: raw.TimestampUs,
			SrcHost:     ctx.SrcHost,
			DstHost:     ctx.DstHost,
			SrcPort:     ctx.SrcPort,
			DstPort:     ctx.DstPort,
			Seq:         ctx.TCPSeq,
			Ack:         ctx.TCPAck,
			Flags:       ctx.TCPFlags,
			Payload:     payload,
		}
		dropsBefore := e.tracker.ReassemblyDrops()
		connID := e.tracker.Observe(seg)
		frame.ConnectionID = connID
		if e.tracker.ReassemblyDrops() > dropsBefore && frame.Summary.Status == model.StatusInfo {
			frame.Summary.Status = model.StatusWarn
		}

		for _, produced := range e.tracker.DrainHTTP() {
			i := e.http.Append(*produced.Message)
			frame.HasHTTPMessage = true
			frame.HTTPMessageIndex = i
		}
		for _, produced := range e.tracker.DrainTLS() {
			i := e.tls.Append(*produced.Record)
			frame.TLSRecordIndexes = append(frame.TLSRecordIndexes, i)
		}

		if conn, ok := e.tracker.Connection(connID); ok {
			e.convs.Update(conn)
		}
	}

	e.frames = append(e.frames, frame)
	e.frameBytes = append(e.frameBytes, raw.Data)
	e.entryTokens = append(e.entryTokens, entry)
}

func sliceBounded(data []byte, offset, length int) []byte {
	if offset < 0 || length < 0 || offset+length > len(data) {
		return nil
	}
	return data[offset : offset+length]
}

// byteOffsetOf computes frameData's offset within region via pointer
// arithmetic; both slices share the same backing array since the demuxer
// never copies bytes out of the ingest region.
func byteOffsetOf(region, frameData []byte) int64 {
	if len(frameData) == 0 || len(region) == 0 {
		return 0
	}
	return int64(uintptr(unsafe.Pointer(&frameData[0])) - uintptr(unsafe.Pointer(&region[0])))
}

func topProtocolOf(roots []*model.Field) string {
	for i := len(roots) - 1; i >= 0; i-- {
		if roots[i].Tag != "" && roots[i].Tag != "unknown" {
			return strings.ToUpper(roots[i].Tag)
		}
	}
	return "UNKNOWN"
}

// Errors returns the non-fatal errors accumulated since construction.
func (e *Engine) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.errs == nil {
		return nil
	}
	return e.errs.ErrorOrNil()
}
