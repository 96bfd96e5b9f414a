// Package transport implements the transport-layer dissectors (§4.3 /
// §4.4): TCP header parsing (flow tracking itself lives in package flow)
// and UDP, plus the port-based application dispatch table both transports
// share.
package transport

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// Register installs the transport-layer dissectors into reg.
func Register(reg *dissector.Registry) {
	reg.Register(dissector.TokenUDP, UDP)
	reg.Register(dissector.TokenTCP, TCP)
}

// PortToken resolves an application-layer token from a (src, dst) port
// pair for UDP. The TCP flow tracker does not use it; it picks stream
// dissectors with its own port map. DNS also multiplexes
// mDNS/LLMNR/NBNS by port (§4.3), since they share DNS's message format.
func PortToken(srcPort, dstPort int) (dissector.Token, bool) {
	for _, p := range []int{srcPort, dstPort} {
		switch p {
		case 53, 5353, 5355, 137:
			return dissector.TokenDNS, true
		case 67, 68:
			return dissector.TokenDHCP, true
		case 546, 547:
			return dissector.TokenDHCPv6, true
		case 1900:
			return dissector.TokenSSDP, true
		case 5060:
			return dissector.TokenSIP, true
		}
	}
	return dissector.TokenNone, false
}

// UDP dissects the fixed 8-byte UDP header and dispatches to the port-based
// application token. Payload delivery beyond the header is a direct
// hand-off (UDP carries no reassembly state).
func UDP(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	srcPort, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	dstPort, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	length, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	checksum, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	ctx.SrcPort = int(srcPort)
	ctx.DstPort = int(dstPort)
	ctx.TransportProto = "udp"

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("User Datagram Protocol, Src Port: %d, Dst Port: %d", srcPort, dstPort),
		Tag:     "udp",
	}
	if ctx.CollectFields {
		root.Children = []*model.Field{
			dissector.FieldAt(start+4, 2, "length", fmt.Sprintf("Length: %d", length)),
			dissector.FieldAt(start+6, 2, "checksum", fmt.Sprintf("Checksum: 0x%04x", checksum)),
		}
	}

	next, ok := PortToken(int(srcPort), int(dstPort))
	if !ok {
		return root, dissector.TokenNone, nil
	}
	return root, next, nil
}
