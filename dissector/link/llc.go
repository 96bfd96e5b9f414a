package link

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// LLCSNAP dissects IEEE 802.3 LLC, unwrapping a SNAP header (organization
// code 00:00:00) to recover the encapsulated EtherType when present.
func LLCSNAP(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	dsap, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	ssap, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	control, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	summary := fmt.Sprintf("802.3 LLC, DSAP: 0x%02x, SSAP: 0x%02x", dsap, ssap)

	// SNAP extension: DSAP == SSAP == 0xAA, control == 0x03.
	if dsap == 0xAA && ssap == 0xAA && control == 0x03 {
		org, err := r.Borrow(3)
		if err != nil {
			return nil, dissector.TokenNone, err
		}
		etype, err := r.U16(reader.BigEndian)
		if err != nil {
			return nil, dissector.TokenNone, err
		}

		root := &model.Field{
			Offset:  start,
			Length:  r.Pos() - start,
			Summary: fmt.Sprintf("802.3 LLC/SNAP, Org: %02x:%02x:%02x, Type: 0x%04x", org[0], org[1], org[2], etype),
			Tag:     "llc-snap",
		}

		if org[0] == 0 && org[1] == 0 && org[2] == 0 {
			if next, ok := dissector.EtherTypeTokens[etype]; ok {
				return root, next, nil
			}
		}
		ctx.SetInfo("802.3 LLC/SNAP, unsupported type 0x%04x", etype)
		return root, dissector.TokenNone, nil
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: summary,
		Tag:     "llc",
	}
	return root, dissector.TokenNone, nil
}
