package application

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

var dhcpMessageTypes = map[uint8]string{
	1: "DISCOVER", 2: "OFFER", 3: "REQUEST", 4: "DECLINE",
	5: "ACK", 6: "NAK", 7: "RELEASE", 8: "INFORM",
}

// DHCP dissects a DHCPv4 (BOOTP) message: the fixed header, the magic
// cookie, and a walk of the TLV option list far enough to recover the
// message type (option 53).
func DHCP(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	op, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if err := r.Skip(1 + 1 + 1); err != nil { // htype, hlen, hops
		return nil, dissector.TokenNone, err
	}
	xid, err := r.U32(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if err := r.Skip(2 + 2); err != nil { // secs, flags
		return nil, dissector.TokenNone, err
	}
	ciaddr, err := r.IPv4()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	yiaddr, err := r.IPv4()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if err := r.Skip(4 + 4); err != nil { // siaddr, giaddr
		return nil, dissector.TokenNone, err
	}
	if err := r.Skip(16 + 64 + 128); err != nil { // chaddr, sname, file
		return nil, dissector.TokenNone, err
	}

	cookie, err := r.Borrow(4)
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	msgType := uint8(0)
	if cookie[0] == 99 && cookie[1] == 130 && cookie[2] == 83 && cookie[3] == 99 {
		for r.Remaining() > 0 {
			code, err := r.U8()
			if err != nil || code == 255 { // end
				break
			}
			if code == 0 { // pad
				continue
			}
			optLen, err := r.U8()
			if err != nil {
				break
			}
			val, err := r.Borrow(int(optLen))
			if err != nil {
				break
			}
			if code == 53 && len(val) == 1 {
				msgType = val[0]
			}
		}
	}

	typeName := dhcpMessageTypes[msgType]
	if typeName == "" {
		typeName = "Unknown"
	}

	ctx.SetInfo("DHCP %s xid=0x%08x", typeName, xid)

	// Consume any remaining bytes so the field covers the whole datagram.
	if err := r.Skip(r.Remaining()); err != nil {
		return nil, dissector.TokenNone, err
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Dynamic Host Configuration Protocol, %s, Client: %s, Your: %s (op %d)", typeName, ciaddr, yiaddr, op),
		Tag:     "dhcp",
	}
	return root, dissector.TokenNone, nil
}

// DHCPv6 dissects the DHCPv6 fixed header (message type + transaction id)
// and leaves the option list as raw undecoded bytes within the node's
// range, per §6's leniency policy for lesser-used option sets.
func DHCPv6(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	msgType, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	txIDBytes, err := r.Borrow(3)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	txID := uint32(txIDBytes[0])<<16 | uint32(txIDBytes[1])<<8 | uint32(txIDBytes[2])

	if err := r.Skip(r.Remaining()); err != nil {
		return nil, dissector.TokenNone, err
	}

	ctx.SetInfo("DHCPv6 type=%d xid=0x%06x", msgType, txID)

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("DHCPv6, Message Type: %d, Transaction ID: 0x%06x", msgType, txID),
		Tag:     "dhcpv6",
	}
	return root, dissector.TokenNone, nil
}
