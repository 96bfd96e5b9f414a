package link

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// CookedV1 dissects Linux "cooked capture" v1 (DLT_LINUX_SLL): a 16-byte
// pseudo-header used when no real link-layer header is available (e.g.
// capturing on "any").
func CookedV1(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	pktType, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U16(reader.BigEndian); err != nil { // ARPHRD type
		return nil, dissector.TokenNone, err
	}
	addrLen, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	addr, err := r.Borrow(8) // always 8 bytes, only addrLen of it significant
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	etype, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	if int(addrLen) <= len(addr) && addrLen > 0 {
		ctx.SrcHost = ctx.Pool.Intern(fmt.Sprintf("% x", addr[:addrLen]))
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Linux cooked capture v1, pkttype: %d, Type: 0x%04x", pktType, etype),
		Tag:     "cooked-v1",
	}

	next, ok := dissector.EtherTypeTokens[etype]
	if !ok {
		ctx.SetInfo("Linux cooked capture v1, unsupported ethertype 0x%04x", etype)
		return root, dissector.TokenNone, nil
	}
	return root, next, nil
}

// NullLoopback dissects the BSD Null/Loopback link type: a 4-byte host-byte
// -order address family header (AF_INET=2, AF_INET6=24/28/30 depending on
// platform) directly followed by the network-layer packet.
func NullLoopback(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	family, err := r.U32(reader.NativeEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Null/Loopback, family: %d", family),
		Tag:     "null-loopback",
	}

	switch family {
	case 2:
		return root, dissector.TokenIPv4, nil
	case 24, 28, 30:
		return root, dissector.TokenIPv6, nil
	default:
		ctx.SetInfo("Null/Loopback, unsupported family %d", family)
		return root, dissector.TokenNone, nil
	}
}
