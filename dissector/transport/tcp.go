package transport

import (
	"fmt"
	"strings"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

const (
	flagFIN = 0x01
	flagSYN = 0x02
	flagRST = 0x04
	flagPSH = 0x08
	flagACK = 0x10
	flagURG = 0x20
)

func flagString(flags uint8) string {
	var parts []string
	if flags&flagSYN != 0 {
		parts = append(parts, "SYN")
	}
	if flags&flagACK != 0 {
		parts = append(parts, "ACK")
	}
	if flags&flagFIN != 0 {
		parts = append(parts, "FIN")
	}
	if flags&flagRST != 0 {
		parts = append(parts, "RST")
	}
	if flags&flagPSH != 0 {
		parts = append(parts, "PSH")
	}
	if flags&flagURG != 0 {
		parts = append(parts, "URG")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// TCP dissects the TCP header (including options, skipped by length) and
// records the segment's sequencing/flag/payload-range metadata on ctx; the
// flow tracker (package flow) owns reassembly and is driven by the engine
// from that metadata, not from this dissector's return token. TCP never
// hands off further within the per-frame chain: the application layer is
// reached only once reassembly delivers contiguous bytes.
func TCP(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	srcPort, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	dstPort, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	seq, err := r.U32(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	ack, err := r.U32(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	offsetReserved, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	dataOffset := int(offsetReserved>>4) * 4

	flags, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	window, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	checksum, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U16(reader.BigEndian); err != nil { // urgent pointer
		return nil, dissector.TokenNone, err
	}

	if dataOffset < 20 {
		ctx.Fail()
		return nil, dissector.TokenNone, fmt.Errorf("tcp data offset %d too small", dataOffset)
	}
	if optBytes := dataOffset - 20; optBytes > 0 {
		if err := r.Skip(optBytes); err != nil {
			return nil, dissector.TokenNone, err
		}
	}

	payloadOffset := r.Pos()
	payloadLength := r.Remaining()

	ctx.SrcPort = int(srcPort)
	ctx.DstPort = int(dstPort)
	ctx.TransportProto = "tcp"
	ctx.TCPSeen = true
	ctx.TCPSeq = seq
	ctx.TCPAck = ack
	ctx.TCPFlags = flags
	ctx.TCPPayloadOffset = payloadOffset
	ctx.TCPPayloadLength = payloadLength

	ctx.SetInfo("TCP %d -> %d [%s] Seq=%d Ack=%d Len=%d", srcPort, dstPort, flagString(flags), seq, ack, payloadLength)

	root := &model.Field{
		Offset:  start,
		Length:  payloadOffset - start,
		Summary: fmt.Sprintf("Transmission Control Protocol, Src Port: %d, Dst Port: %d, Seq: %d, Ack: %d, Len: %d", srcPort, dstPort, seq, ack, payloadLength),
		Tag:     "tcp",
	}
	if ctx.CollectFields {
		root.Children = []*model.Field{
			dissector.FieldAt(start+13, 1, "flags", fmt.Sprintf("Flags: %s (0x%02x)", flagString(flags), flags)),
			dissector.FieldAt(start+14, 2, "window", fmt.Sprintf("Window: %d", window)),
			dissector.FieldAt(start+16, 2, "checksum", fmt.Sprintf("Checksum: 0x%04x", checksum)),
		}
	}

	if err := r.Skip(payloadLength); err != nil {
		return nil, dissector.TokenNone, err
	}

	return root, dissector.TokenNone, nil
}
