package capture

import (
	"math"

	"github.com/sankooc/shark-go/reader"
)

// Recognised pcap-ng block types (§4.2). Anything else is consumed by
// length and ignored.
const (
	blockTypeSHB = 0x0A0D0D0A
	blockTypeIDB = 0x00000001
	blockTypeEPB = 0x00000006
)

const byteOrderMagicBE = 0x1A2B3C4D
const byteOrderMagicLE = 0x4D3C2B1A

// ifaceInfo is what an Interface Description Block tells us about one
// interface id: its link-layer type, snaplen, and timestamp resolution.
type ifaceInfo struct {
	linkType int
	snaplen  uint32
	// tsResolRaw is the raw if_tsresol option byte (option code 9).
	// High bit set means a power of two, clear means a power of ten.
	// Absent defaults to 6 (microseconds), per §4.2.1.
	tsResolRaw uint8
}

func (i ifaceInfo) unitsPerSecond() float64 {
	if i.tsResolRaw&0x80 != 0 {
		return math.Pow(2, float64(i.tsResolRaw&0x7f))
	}
	return math.Pow(10, float64(i.tsResolRaw))
}

// toMicros converts a combined 64-bit tick count (high<<32 | low) to
// microseconds using this interface's declared resolution.
func (i ifaceInfo) toMicros(ticks uint64) int64 {
	ups := i.unitsPerSecond()
	return int64(float64(ticks) * 1_000_000 / ups)
}

const defaultTsResolRaw = 6 // 10^-6, i.e. microseconds

// pcapNGDemuxer implements the block-structured pcap-ng container (§4.2).
type pcapNGDemuxer struct {
	order      reader.Order
	interfaces map[int]*ifaceInfo
	nextIfIdx  int
}

func newPcapNGDemuxer(r *reader.Reader) (*pcapNGDemuxer, error) {
	d := &pcapNGDemuxer{
		order:      reader.BigEndian,
		interfaces: make(map[int]*ifaceInfo),
	}

	// Bootstrap by consuming the initial Section Header Block. Subsequent
	// blocks (including further SHBs, for multi-section captures) are
	// handled uniformly by Next.
	if _, _, err := d.readOneBlock(r); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *pcapNGDemuxer) FileType() string { return "pcapng" }

func (d *pcapNGDemuxer) LinkType(interfaceID int) int {
	if info, ok := d.interfaces[interfaceID]; ok {
		return info.linkType
	}
	return 0
}

// readOneBlock reads exactly one block (of any type) starting at r's
// current position, updates demuxer state (order, interface table) as a
// side effect, and returns the block's type and body (the bytes strictly
// between the leading and trailing length fields). On ErrNeedMoreData, r
// is rewound to the position readOneBlock was called at.
func (d *pcapNGDemuxer) readOneBlock(r *reader.Reader) (uint32, []byte, error) {
	start := r.Pos()

	const minBlockLen = 12 // type(4) + total_len(4) + trailing total_len(4)
	if r.Remaining() < minBlockLen {
		return 0, nil, ErrNeedMoreData
	}

	// block_type is read using the CURRENT assumed order. This is safe even
	// when the block is actually an SHB in a different order than we
	// currently believe, because the SHB magic 0x0A0D0D0A is a byte
	// palindrome: it decodes to the same uint32 value under either byte
	// order.
	blockType, err := r.U32(d.order)
	if err != nil {
		r.RewindTo(start)
		return 0, nil, ErrNeedMoreData
	}

	order := d.order
	if blockType == blockTypeSHB {
		// Determine this section's real byte order from the byte-order
		// magic, which sits right after block_total_length in the body.
		peeked, err := r.Peek(8)
		if err != nil {
			r.RewindTo(start)
			return 0, nil, ErrNeedMoreData
		}
		magic := uint32(peeked[4])<<24 | uint32(peeked[5])<<16 | uint32(peeked[6])<<8 | uint32(peeked[7])
		switch magic {
		case byteOrderMagicBE:
			order = reader.BigEndian
		case byteOrderMagicLE:
			order = reader.LittleEndian
		default:
			r.RewindTo(start)
			return 0, nil, ErrFormatMismatch
		}
	}

	totalLen, err := r.U32(order)
	if err != nil {
		r.RewindTo(start)
		return 0, nil, ErrNeedMoreData
	}
	if totalLen < uint32(minBlockLen) {
		r.RewindTo(start)
		return 0, nil, ErrFormatMismatch
	}

	if r.Remaining() < int(totalLen)-8 {
		r.RewindTo(start)
		return 0, nil, ErrNeedMoreData
	}

	bodyLen := int(totalLen) - 12
	body, err := r.Borrow(bodyLen)
	if err != nil {
		r.RewindTo(start)
		return 0, nil, ErrNeedMoreData
	}

	trailingLen, err := r.U32(order)
	if err != nil {
		r.RewindTo(start)
		return 0, nil, ErrNeedMoreData
	}
	if trailingLen != totalLen {
		r.RewindTo(start)
		return 0, nil, ErrFormatMismatch
	}

	if blockType == blockTypeSHB {
		d.order = order
	}

	return blockType, body, nil
}

// Next reads blocks until it finds an Enhanced Packet Block (emitting a
// frame) or runs out of data. Section Header and Interface Description
// Blocks are consumed transparently as state updates; any other block
// type is skipped.
func (d *pcapNGDemuxer) Next(r *reader.Reader) (*RawFrame, error) {
	for {
		blockType, body, err := d.readOneBlock(r)
		if err != nil {
			return nil, err
		}

		switch blockType {
		case blockTypeIDB:
			d.handleIDB(body)
		case blockTypeEPB:
			frame, err := d.handleEPB(body)
			if err != nil {
				return nil, err
			}
			return frame, nil
		default:
			// Section header blocks and anything unrecognised: already fully
			// consumed by readOneBlock, nothing further to do.
		}
	}
}

func (d *pcapNGDemuxer) handleIDB(body []byte) {
	br := reader.New(body)
	linkType, err := br.U16(d.order)
	if err != nil {
		return
	}
	if _, err := br.U16(d.order); err != nil { // reserved
		return
	}
	snaplen, err := br.U32(d.order)
	if err != nil {
		return
	}

	info := &ifaceInfo{
		linkType:   int(linkType),
		snaplen:    snaplen,
		tsResolRaw: defaultTsResolRaw,
	}

	for {
		optCode, err := br.U16(d.order)
		if err != nil {
			break
		}
		optLen, err := br.U16(d.order)
		if err != nil {
			break
		}
		if optCode == 0 { // opt_endofopt
			break
		}
		optVal, err := br.Borrow(int(optLen))
		if err != nil {
			break
		}
		if optCode == 9 && optLen >= 1 { // if_tsresol
			info.tsResolRaw = optVal[0]
		}
		// Options are padded to a 4-byte boundary.
		pad := (4 - int(optLen)%4) % 4
		_ = br.Skip(pad)
	}

	id := d.nextIfIdx
	d.nextIfIdx++
	d.interfaces[id] = info
}

func (d *pcapNGDemuxer) handleEPB(body []byte) (*RawFrame, error) {
	br := reader.New(body)

	ifaceID, err := br.U32(d.order)
	if err != nil {
		return nil, ErrFormatMismatch
	}
	tsHigh, err := br.U32(d.order)
	if err != nil {
		return nil, ErrFormatMismatch
	}
	tsLow, err := br.U32(d.order)
	if err != nil {
		return nil, ErrFormatMismatch
	}
	capturedLen, err := br.U32(d.order)
	if err != nil {
		return nil, ErrFormatMismatch
	}
	originalLen, err := br.U32(d.order)
	if err != nil {
		return nil, ErrFormatMismatch
	}

	if br.Remaining() < int(capturedLen) {
		return nil, ErrFormatMismatch
	}
	data, err := br.Borrow(int(capturedLen))
	if err != nil {
		return nil, ErrFormatMismatch
	}
	pad := (4 - int(capturedLen)%4) % 4
	_ = br.Skip(pad)

	info, ok := d.interfaces[int(ifaceID)]
	if !ok {
		info = &ifaceInfo{tsResolRaw: defaultTsResolRaw}
	}

	ticks := uint64(tsHigh)<<32 | uint64(tsLow)

	truncated := info.snaplen != 0 && capturedLen > info.snaplen

	return &RawFrame{
		TimestampUs: info.toMicros(ticks),
		Data:        data,
		CapturedLen: int(capturedLen),
		OriginalLen: int(originalLen),
		InterfaceID: int(ifaceID),
		LinkType:    info.linkType,
		Truncated:   truncated,
	}, nil
}
