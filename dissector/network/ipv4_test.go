package network

import (
	"testing"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/intern"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// ipv4Header builds a minimal 20-byte IPv4 header (no options) carrying
// protocol proto, with the given fragmentation flags/offset field.
func ipv4Header(proto uint8, flagsFrag uint16) []byte {
	b := make([]byte, 20)
	b[0] = 0x45 // version 4, IHL 5 (20 bytes)
	b[2], b[3] = 0, 20 // total length
	b[6] = byte(flagsFrag >> 8)
	b[7] = byte(flagsFrag)
	b[8] = 64 // ttl
	b[9] = proto
	copy(b[12:16], []byte{10, 0, 0, 1}) // src
	copy(b[16:20], []byte{10, 0, 0, 2}) // dst
	return b
}

func TestIPv4DispatchesByProtocol(t *testing.T) {
	r := reader.New(ipv4Header(6, 0)) // TCP, not fragmented
	ctx := &dissector.Context{Pool: intern.New()}

	field, next, err := IPv4(r, ctx)
	if err != nil {
		t.Fatalf("IPv4: %v", err)
	}
	if next != dissector.TokenTCP {
		t.Errorf("next = %q, want tcp", next)
	}
	if field.Tag != "ipv4" {
		t.Errorf("tag = %q, want ipv4", field.Tag)
	}
}

func TestIPv4FragmentedDatagramTerminates(t *testing.T) {
	r := reader.New(ipv4Header(17, 0x2000)) // more-fragments bit set
	ctx := &dissector.Context{Pool: intern.New()}

	_, next, err := IPv4(r, ctx)
	if err != nil {
		t.Fatalf("IPv4: %v", err)
	}
	if next != dissector.TokenNone {
		t.Errorf("next = %q, want none for a fragmented datagram", next)
	}
	if ctx.Info == "" {
		t.Error("expected ctx.Info to note the fragmentation")
	}
}

func TestIPv4UnsupportedProtocolTerminatesCleanly(t *testing.T) {
	r := reader.New(ipv4Header(253, 0)) // reserved for experimentation
	ctx := &dissector.Context{Pool: intern.New()}

	_, next, err := IPv4(r, ctx)
	if err != nil {
		t.Fatalf("IPv4: %v", err)
	}
	if next != dissector.TokenNone {
		t.Errorf("next = %q, want none", next)
	}
}

func TestIPv4WithOptionsSkipsThem(t *testing.T) {
	h := ipv4Header(6, 0)
	h[0] = 0x46 // IHL 6 words = 24 bytes: 4 bytes of options
	h = append(h, []byte{0, 0, 0, 0}...)
	payload := append(h, []byte{0xde, 0xad}...) // trailing payload after header

	r := reader.New(payload)
	ctx := &dissector.Context{Pool: intern.New()}

	_, _, err := IPv4(r, ctx)
	if err != nil {
		t.Fatalf("IPv4: %v", err)
	}
	if r.Pos() != 24 {
		t.Errorf("cursor after header+options = %d, want 24", r.Pos())
	}
}

func TestIPv4ShortIHLWarns(t *testing.T) {
	h := ipv4Header(6, 0)
	h[0] = 0x44 // IHL 4 words = 16 bytes, below the minimum 20
	r := reader.New(h)
	ctx := &dissector.Context{Pool: intern.New()}

	if _, _, err := IPv4(r, ctx); err != nil {
		t.Fatalf("IPv4: %v", err)
	}
	if ctx.Status != model.StatusWarn {
		t.Errorf("Status = %v, want StatusWarn for an IHL below 20 bytes", ctx.Status)
	}
}
