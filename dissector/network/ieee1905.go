package network

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// IEEE1905 dissects the IEEE 1905.1a convergence-layer message header
// (version, message type, id, fragment, flags) reached directly from
// EtherType 0x893A. TLV payload walking is out of scope; the TLV bytes
// remain part of this node's range undecoded.
func IEEE1905(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	version, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U8(); err != nil { // reserved
		return nil, dissector.TokenNone, err
	}
	msgType, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	msgID, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	fragID, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	flags, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	ctx.SetInfo("IEEE 1905.1a type=0x%04x id=%d", msgType, msgID)

	if err := r.Skip(r.Remaining()); err != nil {
		return nil, dissector.TokenNone, err
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("IEEE 1905.1a, version %d, type: 0x%04x, id: %d, fragment: %d, flags: 0x%02x", version, msgType, msgID, fragID, flags),
		Tag:     "ieee1905",
	}
	return root, dissector.TokenNone, nil
}
