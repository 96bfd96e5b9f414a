package capture

import (
	"github.com/sankooc/shark-go/reader"
)

// pcapDemuxer implements the classic pcap container (§4.2): a 24-byte
// global header followed by {ts_sec, ts_usec, captured_len, original_len}
// record headers plus captured_len bytes of payload, repeated to EOF.
type pcapDemuxer struct {
	order    reader.Order
	linkType int
	snaplen  uint32
}

const pcapGlobalHeaderLen = 24
const pcapRecordHeaderLen = 16

func newPcapDemuxer(r *reader.Reader) (*pcapDemuxer, error) {
	if r.Remaining() < pcapGlobalHeaderLen {
		return nil, ErrNeedMoreData
	}

	magicBytes, err := r.Peek(4)
	if err != nil {
		return nil, err
	}

	var order reader.Order
	magic := uint32(magicBytes[0])<<24 | uint32(magicBytes[1])<<16 | uint32(magicBytes[2])<<8 | uint32(magicBytes[3])
	switch magic {
	case magicClassicBE:
		order = reader.BigEndian
	case magicClassicSwapped:
		order = reader.LittleEndian
	default:
		return nil, ErrUnsupportedFileType
	}

	if _, err := r.U32(order); err != nil { // magic
		return nil, err
	}
	if _, err := r.U16(order); err != nil { // version_major
		return nil, err
	}
	if _, err := r.U16(order); err != nil { // version_minor
		return nil, err
	}
	if _, err := r.U32(order); err != nil { // thiszone
		return nil, err
	}
	if _, err := r.U32(order); err != nil { // sigfigs
		return nil, err
	}
	snaplen, err := r.U32(order)
	if err != nil {
		return nil, err
	}
	network, err := r.U32(order)
	if err != nil {
		return nil, err
	}

	return &pcapDemuxer{
		order:    order,
		linkType: int(network),
		snaplen:  snaplen,
	}, nil
}

func (d *pcapDemuxer) FileType() string { return "pcap" }

func (d *pcapDemuxer) LinkType(interfaceID int) int { return d.linkType }

func (d *pcapDemuxer) Next(r *reader.Reader) (*RawFrame, error) {
	start := r.Pos()

	if r.Remaining() < pcapRecordHeaderLen {
		return nil, ErrNeedMoreData
	}

	tsSec, err := r.U32(d.order)
	if err != nil {
		r.RewindTo(start)
		return nil, ErrNeedMoreData
	}
	tsUsec, err := r.U32(d.order)
	if err != nil {
		r.RewindTo(start)
		return nil, ErrNeedMoreData
	}
	capturedLen, err := r.U32(d.order)
	if err != nil {
		r.RewindTo(start)
		return nil, ErrNeedMoreData
	}
	originalLen, err := r.U32(d.order)
	if err != nil {
		r.RewindTo(start)
		return nil, ErrNeedMoreData
	}

	if r.Remaining() < int(capturedLen) {
		r.RewindTo(start)
		return nil, ErrNeedMoreData
	}

	data, err := r.Borrow(int(capturedLen))
	if err != nil {
		r.RewindTo(start)
		return nil, ErrNeedMoreData
	}

	truncated := d.snaplen != 0 && capturedLen > d.snaplen

	return &RawFrame{
		TimestampUs: int64(tsSec)*1_000_000 + int64(tsUsec),
		Data:        data,
		CapturedLen: int(capturedLen),
		OriginalLen: int(originalLen),
		InterfaceID: 0,
		LinkType:    d.linkType,
		Truncated:   truncated,
	}, nil
}
