package network

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

func icmpTypeName(t uint8) string {
	switch t {
	case 0:
		return "Echo Reply"
	case 3:
		return "Destination Unreachable"
	case 5:
		return "Redirect"
	case 8:
		return "Echo Request"
	case 11:
		return "Time Exceeded"
	default:
		return "Unknown"
	}
}

// ICMP dissects an ICMPv4 header; payload beyond the 4-byte common header
// plus the 4-byte type-specific word is left undecoded (carried as raw
// bytes within this field's range, per §6's leniency policy).
func ICMP(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	icmpType, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	code, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	checksum, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U32(reader.BigEndian); err != nil { // rest-of-header word
		return nil, dissector.TokenNone, err
	}
	if err := r.Skip(r.Remaining()); err != nil {
		return nil, dissector.TokenNone, err
	}

	ctx.SetInfo("ICMP %s", icmpTypeName(icmpType))

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Internet Control Message Protocol, %s (type %d, code %d)", icmpTypeName(icmpType), icmpType, code),
		Tag:     "icmp",
	}
	if ctx.CollectFields {
		root.Children = []*model.Field{
			dissector.FieldAt(start+2, 2, "checksum", fmt.Sprintf("Checksum: 0x%04x", checksum)),
		}
	}
	return root, dissector.TokenNone, nil
}

func icmpv6TypeName(t uint8) string {
	switch t {
	case 1:
		return "Destination Unreachable"
	case 3:
		return "Time Exceeded"
	case 128:
		return "Echo Request"
	case 129:
		return "Echo Reply"
	case 133:
		return "Router Solicitation"
	case 134:
		return "Router Advertisement"
	case 135:
		return "Neighbor Solicitation"
	case 136:
		return "Neighbor Advertisement"
	default:
		return "Unknown"
	}
}

// ICMPv6 dissects the common ICMPv6 header. Neighbor discovery option
// parsing is out of scope; the option bytes remain part of this node's
// byte range without individual children.
func ICMPv6(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	icmpType, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	code, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	checksum, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U32(reader.BigEndian); err != nil {
		return nil, dissector.TokenNone, err
	}
	if err := r.Skip(r.Remaining()); err != nil {
		return nil, dissector.TokenNone, err
	}

	ctx.SetInfo("ICMPv6 %s", icmpv6TypeName(icmpType))

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Internet Control Message Protocol v6, %s (type %d, code %d)", icmpv6TypeName(icmpType), icmpType, code),
		Tag:     "icmpv6",
	}
	if ctx.CollectFields {
		root.Children = []*model.Field{
			dissector.FieldAt(start+2, 2, "checksum", fmt.Sprintf("Checksum: 0x%04x", checksum)),
		}
	}
	return root, dissector.TokenNone, nil
}
