// Package link implements the link-layer dissectors (§4.3): Ethernet II,
// 802.3 LLC/SNAP, 802.11 data frames, the Radiotap wrapper, Linux cooked
// capture v1, Null/Loopback, and PPPoE session framing.
package link

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// Register installs every link-layer dissector into reg.
func Register(reg *dissector.Registry) {
	reg.Register(dissector.TokenEthernet, Ethernet)
	reg.Register(dissector.TokenLLC, LLCSNAP)
	reg.Register(dissector.TokenDot11, Dot11)
	reg.Register(dissector.TokenRadiotap, Radiotap)
	reg.Register(dissector.TokenCookedV1, CookedV1)
	reg.Register(dissector.TokenNullLoop, NullLoopback)
	reg.Register(dissector.TokenPPPoESess, PPPoESession)
}

// SelectEntry picks the first link-layer token for a capture's declared
// link-layer id, per §4.3's dispatch table plus the heuristic for id 0
// (which means different things in classic pcap vs pcap-ng).
func SelectEntry(linkType int, firstBytes []byte) dissector.Token {
	switch linkType {
	case 1:
		return dissector.TokenEthernet
	case 113:
		return dissector.TokenCookedV1
	case 127:
		return dissector.TokenRadiotap
	case 0:
		if looksLikeCooked(firstBytes) {
			return dissector.TokenCookedV1
		}
		return dissector.TokenNullLoop
	default:
		return dissector.TokenEthernet
	}
}

// looksLikeCooked applies §4.3's heuristic: byte 0 zero, byte 5 == 6 (the
// hardware address length Linux cooked capture reports for Ethernet), and
// the EtherType at bytes 14-15 one of the common values.
func looksLikeCooked(b []byte) bool {
	if len(b) < 16 {
		return false
	}
	if b[0] != 0 || b[5] != 6 {
		return false
	}
	ethertype := uint16(b[14])<<8 | uint16(b[15])
	switch ethertype {
	case 0x0806, 0x0800, 0x86DD, 0x8864:
		return true
	default:
		return false
	}
}

// Ethernet dissects an Ethernet II frame: 6-byte destination, 6-byte
// source, 2-byte EtherType/length. When the EtherType field is <= 1500 it
// is actually a length and the frame is 802.3 LLC/SNAP.
func Ethernet(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	dst, err := r.MAC()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	src, err := r.MAC()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	etype, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	ctx.SrcHost = ctx.Pool.Intern(src.String())
	ctx.DstHost = ctx.Pool.Intern(dst.String())

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Ethernet II, Src: %s, Dst: %s", src, dst),
		Tag:     "ethernet",
	}
	if ctx.CollectFields {
		root.Children = []*model.Field{
			dissector.FieldAt(start, 6, "dst-mac", fmt.Sprintf("Destination: %s", dst)),
			dissector.FieldAt(start+6, 6, "src-mac", fmt.Sprintf("Source: %s", src)),
			dissector.FieldAt(start+12, 2, "ethertype", fmt.Sprintf("Type: 0x%04x", etype)),
		}
	}

	if etype <= 1500 {
		return root, dissector.TokenLLC, nil
	}

	next, ok := dissector.EtherTypeTokens[etype]
	if !ok {
		ctx.SetInfo("Ethernet II, unsupported ethertype 0x%04x", etype)
		return root, dissector.TokenNone, nil
	}
	return root, next, nil
}
