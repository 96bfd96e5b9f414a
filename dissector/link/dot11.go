package link

import (
	"fmt"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// Radiotap skips the vendor-defined Radiotap header (present-flags driven,
// length at bytes 2-3 little-endian) and hands the remainder to the 802.11
// dissector. Radiotap fields themselves (signal strength, rate, channel)
// are outside this spec's scope and are not decoded individually.
func Radiotap(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	if _, err := r.U8(); err != nil { // version
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U8(); err != nil { // pad
		return nil, dissector.TokenNone, err
	}
	length, err := r.U16(reader.LittleEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if int(length) < 4 {
		return nil, dissector.TokenNone, fmt.Errorf("radiotap length %d too short", length)
	}
	if err := r.Skip(int(length) - 4); err != nil {
		return nil, dissector.TokenNone, err
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Radiotap header, length: %d", length),
		Tag:     "radiotap",
	}
	return root, dissector.TokenDot11, nil
}

// Dot11 dissects the frame control field of an IEEE 802.11 frame and the
// fixed 24-byte MAC header (26 bytes for QoS data subtypes). The header is
// read the same way for every frame type; management and control frames
// are summarised but not decoded further, per §4.3's "data frames only"
// scope.
func Dot11(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	fc, err := r.U16(reader.LittleEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	frameType := (fc >> 2) & 0x3
	subtype := (fc >> 4) & 0xf
	isQoS := frameType == 2 && subtype&0x8 != 0

	if _, err := r.U16(reader.LittleEndian); err != nil { // duration/id
		return nil, dissector.TokenNone, err
	}
	addr1, err := r.MAC()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	addr2, err := r.MAC()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	addr3, err := r.MAC()
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U16(reader.LittleEndian); err != nil { // seq ctrl
		return nil, dissector.TokenNone, err
	}
	if isQoS {
		if _, err := r.U16(reader.LittleEndian); err != nil {
			return nil, dissector.TokenNone, err
		}
	}

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("IEEE 802.11, type %d subtype %d, Addr1: %s, Addr2: %s, Addr3: %s", frameType, subtype, addr1, addr2, addr3),
		Tag:     "dot11",
	}

	if frameType != 2 {
		ctx.SetInfo("IEEE 802.11, non-data frame (type %d)", frameType)
		return root, dissector.TokenNone, nil
	}

	ctx.SrcHost = ctx.Pool.Intern(addr2.String())
	ctx.DstHost = ctx.Pool.Intern(addr1.String())

	// Data frames in this spec's scope carry an LLC/SNAP payload.
	return root, dissector.TokenLLC, nil
}
