package link

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// PPPoESession dissects a PPPoE session header (RFC 2516) followed by its
// 2-byte PPP protocol id, mapping the common IPv4/IPv6 PPP protocol ids
// onward.
func PPPoESession(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	verType, err := r.U8()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U8(); err != nil { // code
		return nil, dissector.TokenNone, err
	}
	sessionID, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	payloadLen, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	pppProto, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("PPPoE Session, ver/type: 0x%02x, session: 0x%04x, len: %d", verType, sessionID, payloadLen),
		Tag:     "pppoe-session",
	}

	switch pppProto {
	case 0x0021:
		return root, dissector.TokenIPv4, nil
	case 0x0057:
		return root, dissector.TokenIPv6, nil
	default:
		ctx.SetInfo("PPPoE Session, unsupported PPP protocol 0x%04x", pppProto)
		return root, dissector.TokenNone, nil
	}
}
