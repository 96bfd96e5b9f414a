// Package capture implements the capture-file demultiplexer (component C):
// it detects classic pcap vs pcap-ng from the magic prefix and yields
// successive frames with timestamps and payload ranges. It never decodes
// protocol contents — that is the dissector registry's job.
package capture

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/sankooc/shark-go/reader"
)

// ErrUnsupportedFileType is returned when the first four bytes match
// neither the classic pcap nor the pcap-ng magic.
var ErrUnsupportedFileType = errors.New("UnsupportedFileType")

// ErrFormatMismatch is returned when a structural invariant of the
// container format is violated (e.g. a pcap-ng block's trailing length
// doesn't match its leading length).
var ErrFormatMismatch = errors.New("FormatMismatch")

// ErrTruncated marks a frame whose captured length exceeds the recorded
// snaplen, or whose declared length runs past the available bytes in a
// way that isn't simply "need more data" (the ingest region is known to be
// complete, e.g. at EOF).
var ErrTruncated = errors.New("Truncated")

// ErrNeedMoreData is returned by Demuxer.Next when the current block or
// record is not yet fully available. The reader passed to Next is rewound
// to the start of the incomplete unit so a later call with more appended
// bytes can retry from the same position.
var ErrNeedMoreData = reader.ErrEndOfStream

// RawFrame is one frame as produced by the demuxer: just enough to hand to
// the dissector registry. It carries no decoded fields.
type RawFrame struct {
	TimestampUs int64
	Data        []byte // aliases the ingest region; dissectors must not mutate it
	CapturedLen int
	OriginalLen int
	InterfaceID int
	LinkType    int
	Truncated   bool
}

// Demuxer yields successive frames from a capture file's body, having
// already consumed the file's global header.
type Demuxer interface {
	// Next attempts to decode the next frame starting at r's current
	// position. On success it returns the frame with r advanced past it.
	// On ErrNeedMoreData, r is rewound to where this call started so the
	// caller can retry once more bytes have been appended.
	Next(r *reader.Reader) (*RawFrame, error)

	// FileType identifies the container format for metadata() queries.
	FileType() string

	// LinkType returns the link-layer type declared for the given
	// interface id. Classic pcap has exactly one global link type, which
	// is returned whatever the id (its frames always carry interface id 0).
	LinkType(interfaceID int) int
}

const (
	magicClassicBE      = 0xa1b2c3d4
	magicClassicSwapped = 0xd4c3b2a1
	magicPcapNG         = 0x0a0d0d0a
)

// Detect inspects the first four bytes of r (without consuming them on
// failure) and returns a ready-to-use Demuxer positioned just past the
// format-specific global header(s) it needed to bootstrap. It returns
// ErrNeedMoreData if fewer than the bytes needed to determine and parse
// the header are available yet.
func Detect(r *reader.Reader) (Demuxer, error) {
	start := r.Pos()
	magicBytes, err := r.Peek(4)
	if err != nil {
		return nil, err
	}
	magic := binary.BigEndian.Uint32(magicBytes)

	switch magic {
	case magicClassicBE, magicClassicSwapped:
		d, err := newPcapDemuxer(r)
		if err != nil {
			r.RewindTo(start)
			return nil, err
		}
		return d, nil
	case magicPcapNG:
		d, err := newPcapNGDemuxer(r)
		if err != nil {
			r.RewindTo(start)
			return nil, err
		}
		return d, nil
	default:
		return nil, ErrUnsupportedFileType
	}
}
