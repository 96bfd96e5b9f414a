// Package network implements the network-layer dissectors (§4.3): IPv4,
// IPv6 (hop-by-hop options skipped), ARP/RARP, ICMP, ICMPv6, and IGMP
// (supplemented from the original implementation, see SPEC_FULL.md §4.3.1).
package network

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// Register installs every network-layer dissector into reg.
func Register(reg *dissector.Registry) {
	reg.Register(dissector.TokenIPv4, IPv4)
	reg.Register(dissector.TokenIPv6, IPv6)
	reg.Register(dissector.TokenARP, ARP)
	reg.Register(dissector.TokenICMP, ICMP)
	reg.Register(dissector.TokenICMPv6, ICMPv6)
	reg.Register(dissector.TokenIGMP, IGMP)
	reg.Register(dissector.TokenIEEE1905, IEEE1905)
}

// IPv4 dissects a (possibly options-bearing) IPv4 header.
func IPv4(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	verIHL, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	version := verIHL >> 4
	ihl := int(verIHL&0x0f) * 4

	if _, err := r.U8(); err != nil { // DSCP/ECN
		return nil, dissector.TokenNone, err
	}
	totalLen, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U16(reader.BigEndian); err != nil { // identification
		return nil, dissector.TokenNone, err
	}
	flagsFrag, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U8(); err != nil { // ttl
		return nil, dissector.TokenNone, err
	}
	protocol, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	checksum, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	src, err := r.IPv4()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	dst, err := r.IPv4()
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	if ihl < 20 {
		ctx.Warn()
	} else if optBytes := ihl - 20; optBytes > 0 {
		if err := r.Skip(optBytes); err != nil {
			return nil, dissector.TokenNone, err
		}
	}

	ctx.SrcHost = ctx.Pool.Intern(src.String())
	ctx.DstHost = ctx.Pool.Intern(dst.String())

	fragmented := flagsFrag&0x1FFF != 0 || flagsFrag&0x2000 != 0

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Internet Protocol Version %d, Src: %s, Dst: %s", version, src, dst),
		Tag:     "ipv4",
	}
	if ctx.CollectFields {
		root.Children = []*model.Field{
			dissector.FieldAt(start+2, 2, "total-length", fmt.Sprintf("Total Length: %d", totalLen)),
			dissector.FieldAt(start+10, 2, "checksum", fmt.Sprintf("Header Checksum: 0x%04x", checksum)),
		}
	}
	if fragmented {
		ctx.SetInfo("Fragmented IP datagram")
		return root, dissector.TokenNone, nil
	}

	next, ok := dissector.IPProtocolTokens[protocol]
	if !ok {
		ctx.SetInfo("IPv4, unsupported protocol %d", protocol)
		return root, dissector.TokenNone, nil
	}
	return root, next, nil
}
