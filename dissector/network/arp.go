package network

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// ARP dissects an ARP or RARP packet (same wire format, distinguished only
// by the EtherType that routed here and the opcode field).
func ARP(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	htype, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	ptype, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	hlen, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	plen, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	opcode, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	senderHW, err := r.Borrow(int(hlen))
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	senderProto, err := r.Borrow(int(plen))
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	targetHW, err := r.Borrow(int(hlen))
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	targetProto, err := r.Borrow(int(plen))
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	opName := "Unknown"
	switch opcode {
	case 1:
		opName = "Request"
	case 2:
		opName = "Reply"
	case 3:
		opName = "RARP Request"
	case 4:
		opName = "RARP Reply"
	}

	if ptype == 0x0800 && plen == 4 {
		ctx.SrcHost = ctx.Pool.Intern(fmt.Sprintf("%d.%d.%d.%d", senderProto[0], senderProto[1], senderProto[2], senderProto[3]))
		ctx.DstHost = ctx.Pool.Intern(fmt.Sprintf("%d.%d.%d.%d", targetProto[0], targetProto[1], targetProto[2], targetProto[3]))
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Address Resolution Protocol (%s), hw: %d, proto: 0x%04x", opName, htype, ptype),
		Tag:     "arp",
	}
	if ctx.CollectFields {
		senderHWOffset := start + 8
		targetHWOffset := senderHWOffset + int(hlen) + int(plen)
		root.Children = []*model.Field{
			dissector.FieldAt(senderHWOffset, int(hlen), "sender-hw", fmt.Sprintf("Sender HW: % x", senderHW)),
			dissector.FieldAt(targetHWOffset, int(hlen), "target-hw", fmt.Sprintf("Target HW: % x", targetHW)),
		}
	}
	return root, dissector.TokenNone, nil
}
