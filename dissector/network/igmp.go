package network

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// IGMP dissects an IGMPv2-shaped membership message: type, max response
// time, checksum, and a group address. This dissector is supplemented from
// the original implementation (not present in the distilled spec's explicit
// dissector list) since multicast group tracking is a natural companion to
// the rest of the network layer.
func IGMP(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	msgType, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	maxResp, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	checksum, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	group, err := r.IPv4()
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	typeName := "Unknown"
	switch msgType {
	case 0x11:
		typeName = "Membership Query"
	case 0x12:
		typeName = "Membership Report v1"
	case 0x16:
		typeName = "Membership Report v2"
	case 0x17:
		typeName = "Leave Group"
	case 0x22:
		typeName = "Membership Report v3"
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("IGMP %s, Group: %s", typeName, group),
		Tag:     "igmp",
	}
	if ctx.CollectFields {
		root.Children = []*model.Field{
			dissector.FieldAt(start+1, 1, "max-resp", fmt.Sprintf("Max Response Time: %d", maxResp)),
			dissector.FieldAt(start+2, 2, "checksum", fmt.Sprintf("Checksum: 0x%04x", checksum)),
		}
	}
	return root, dissector.TokenNone, nil
}
