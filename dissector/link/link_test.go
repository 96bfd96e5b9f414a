package link

import (
	"testing"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/intern"
	"github.com/sankooc/shark-go/reader"
)

func TestSelectEntryKnownLinkTypes(t *testing.T) {
	cases := []struct {
		linkType int
		want     dissector.Token
	}{
		{1, dissector.TokenEthernet},
		{113, dissector.TokenCookedV1},
		{127, dissector.TokenRadiotap},
		{99, dissector.TokenEthernet}, // unknown falls back to Ethernet
	}
	for _, c := range cases {
		if got := SelectEntry(c.linkType, nil); got != c.want {
			t.Errorf("SelectEntry(%d) = %q, want %q", c.linkType, got, c.want)
		}
	}
}

func TestSelectEntryLinkTypeZeroHeuristic(t *testing.T) {
	cooked := make([]byte, 16)
	cooked[5] = 6
	cooked[14], cooked[15] = 0x08, 0x00 // IPv4 ethertype
	if got := SelectEntry(0, cooked); got != dissector.TokenCookedV1 {
		t.Errorf("SelectEntry(0, cooked) = %q, want cooked-v1", got)
	}

	if got := SelectEntry(0, make([]byte, 16)); got != dissector.TokenNullLoop {
		t.Errorf("SelectEntry(0, zero) = %q, want null-loopback", got)
	}

	if got := SelectEntry(0, []byte{1, 2, 3}); got != dissector.TokenNullLoop {
		t.Errorf("SelectEntry(0, short) = %q, want null-loopback fallback", got)
	}
}

func ethernetFrame(ethertype uint16) []byte {
	b := make([]byte, 14)
	copy(b[0:6], []byte{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}) // dst
	copy(b[6:12], []byte{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}) // src
	b[12] = byte(ethertype >> 8)
	b[13] = byte(ethertype)
	return b
}

func TestEthernetDispatchesByEtherType(t *testing.T) {
	r := reader.New(ethernetFrame(0x0800))
	ctx := &dissector.Context{Pool: intern.New()}

	field, next, err := Ethernet(r, ctx)
	if err != nil {
		t.Fatalf("Ethernet: %v", err)
	}
	if next != dissector.TokenIPv4 {
		t.Errorf("next = %q, want ipv4", next)
	}
	if field.Tag != "ethernet" {
		t.Errorf("tag = %q, want ethernet", field.Tag)
	}
	if ctx.SrcHost == ctx.DstHost {
		t.Error("expected distinct interned refs for distinct src/dst MACs")
	}
}

func TestEthernetLengthFieldRoutesToLLC(t *testing.T) {
	r := reader.New(ethernetFrame(42)) // <= 1500: a length, not an ethertype
	ctx := &dissector.Context{Pool: intern.New()}

	_, next, err := Ethernet(r, ctx)
	if err != nil {
		t.Fatalf("Ethernet: %v", err)
	}
	if next != dissector.TokenLLC {
		t.Errorf("next = %q, want llc", next)
	}
}

func TestEthernetUnknownEtherTypeTerminatesCleanly(t *testing.T) {
	r := reader.New(ethernetFrame(0xFFFF))
	ctx := &dissector.Context{Pool: intern.New()}

	field, next, err := Ethernet(r, ctx)
	if err != nil {
		t.Fatalf("Ethernet: %v", err)
	}
	if next != dissector.TokenNone {
		t.Errorf("next = %q, want none", next)
	}
	if field == nil {
		t.Fatal("expected a root field even for an unrecognised ethertype")
	}
}

func TestEthernetTruncatedFrameErrors(t *testing.T) {
	r := reader.New([]byte{1, 2, 3})
	ctx := &dissector.Context{Pool: intern.New()}

	if _, _, err := Ethernet(r, ctx); err == nil {
		t.Fatal("expected an error dissecting a truncated Ethernet frame")
	}
}
