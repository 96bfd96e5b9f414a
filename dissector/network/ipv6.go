package network

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// extensionHeaders lists the IPv6 "next header" values this dissector skips
// over (by length) rather than decoding, per §4.3's "extension headers are
// skipped by type" scope.
var extensionHeaders = map[uint8]bool{
	0:  true, // hop-by-hop options
	43: true, // routing
	44: true, // fragment (fixed 8 bytes, handled specially below)
	60: true, // destination options
}

// IPv6 dissects the fixed 40-byte IPv6 header, then walks and skips any
// extension header chain until it reaches a recognised upper-layer
// protocol or runs out of headers it knows how to skip.
func IPv6(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	verTCFL, err := r.U32(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	version := verTCFL >> 28

	payloadLen, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	nextHeader, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U8(); err != nil { // hop limit
		return nil, dissector.TokenNone, err
	}
	src, err := r.IPv6()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	dst, err := r.IPv6()
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	ctx.SrcHost = ctx.Pool.Intern(src.String())
	ctx.DstHost = ctx.Pool.Intern(dst.String())

	// Walk extension headers: each (except fragment, which is fixed size)
	// is {next_header(1), hdr_ext_len(1) in 8-byte units minus one, ...}.
	for extensionHeaders[nextHeader] {
		if nextHeader == 44 { // fragment header: fixed 8 bytes total
			nh, err := r.U8()
			if err != nil {
				return nil, dissector.TokenNone, err
			}
			if err := r.Skip(7); err != nil {
				return nil, dissector.TokenNone, err
			}
			nextHeader = nh
			continue
		}
		nh, err := r.U8()
		if err != nil {
			return nil, dissector.TokenNone, err
		}
		extLenUnits, err := r.U8()
		if err != nil {
			return nil, dissector.TokenNone, err
		}
		skipLen := int(extLenUnits)*8 + 8 - 2
		if err := r.Skip(skipLen); err != nil {
			return nil, dissector.TokenNone, err
		}
		nextHeader = nh
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Internet Protocol Version %d, Src: %s, Dst: %s", version, src, dst),
		Tag:     "ipv6",
	}
	if ctx.CollectFields {
		root.Children = []*model.Field{
			dissector.FieldAt(start+4, 2, "payload-length", fmt.Sprintf("Payload Length: %d", payloadLen)),
		}
	}

	next, ok := dissector.IPProtocolTokens[nextHeader]
	if !ok {
		ctx.SetInfo("IPv6, unsupported next header %d", nextHeader)
		return root, dissector.TokenNone, nil
	}
	return root, next, nil
}
