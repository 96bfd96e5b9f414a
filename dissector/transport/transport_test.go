package transport

import (
	"testing"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/intern"
	"github.com/sankooc/shark-go/reader"
)

func TestPortTokenMatchesEitherDirection(t *testing.T) {
	cases := []struct {
		src, dst int
		want     dissector.Token
	}{
		{12345, 53, dissector.TokenDNS},
		{53, 12345, dissector.TokenDNS},
		{5353, 9999, dissector.TokenDNS},
		{68, 67, dissector.TokenDHCP},
		{9999, 1900, dissector.TokenSSDP},
		{5060, 9999, dissector.TokenSIP},
		{40000, 40001, dissector.TokenNone},
	}
	for _, c := range cases {
		got, ok := PortToken(c.src, c.dst)
		if c.want == dissector.TokenNone {
			if ok {
				t.Errorf("PortToken(%d,%d) = %q, want no match", c.src, c.dst, got)
			}
			continue
		}
		if !ok || got != c.want {
			t.Errorf("PortToken(%d,%d) = %q,%v want %q,true", c.src, c.dst, got, ok, c.want)
		}
	}
}

func udpDatagram(srcPort, dstPort uint16, payload []byte) []byte {
	b := make([]byte, 8)
	b[0], b[1] = byte(srcPort>>8), byte(srcPort)
	b[2], b[3] = byte(dstPort>>8), byte(dstPort)
	length := uint16(8 + len(payload))
	b[4], b[5] = byte(length>>8), byte(length)
	return append(b, payload...)
}

func TestUDPDispatchesDNSByPort(t *testing.T) {
	r := reader.New(udpDatagram(33333, 53, nil))
	ctx := &dissector.Context{Pool: intern.New()}

	field, next, err := UDP(r, ctx)
	if err != nil {
		t.Fatalf("UDP: %v", err)
	}
	if next != dissector.TokenDNS {
		t.Errorf("next = %q, want dns", next)
	}
	if field.Tag != "udp" {
		t.Errorf("tag = %q, want udp", field.Tag)
	}
	if ctx.SrcPort != 33333 || ctx.DstPort != 53 {
		t.Errorf("ports = %d,%d want 33333,53", ctx.SrcPort, ctx.DstPort)
	}
}

func TestUDPUnknownPortTerminatesCleanly(t *testing.T) {
	r := reader.New(udpDatagram(40000, 40001, nil))
	ctx := &dissector.Context{Pool: intern.New()}

	_, next, err := UDP(r, ctx)
	if err != nil {
		t.Fatalf("UDP: %v", err)
	}
	if next != dissector.TokenNone {
		t.Errorf("next = %q, want none", next)
	}
}

func tcpSegment(srcPort, dstPort uint16, seq, ack uint32, flags uint8, payload []byte) []byte {
	b := make([]byte, 20)
	b[0], b[1] = byte(srcPort>>8), byte(srcPort)
	b[2], b[3] = byte(dstPort>>8), byte(dstPort)
	b[4], b[5], b[6], b[7] = byte(seq>>24), byte(seq>>16), byte(seq>>8), byte(seq)
	b[8], b[9], b[10], b[11] = byte(ack>>24), byte(ack>>16), byte(ack>>8), byte(ack)
	b[12] = 5 << 4 // data offset 5 words = 20 bytes, no options
	b[13] = flags
	return append(b, payload...)
}

func TestTCPRecordsSegmentMetadata(t *testing.T) {
	payload := []byte("hello")
	r := reader.New(tcpSegment(1234, 80, 100, 1, flagPSH|flagACK, payload))
	ctx := &dissector.Context{Pool: intern.New()}

	field, next, err := TCP(r, ctx)
	if err != nil {
		t.Fatalf("TCP: %v", err)
	}
	if next != dissector.TokenNone {
		t.Errorf("next = %q, want none (flow tracker drives application dispatch)", next)
	}
	if !ctx.TCPSeen || ctx.TCPSeq != 100 || ctx.TCPAck != 1 {
		t.Errorf("unexpected TCP context: seen=%v seq=%d ack=%d", ctx.TCPSeen, ctx.TCPSeq, ctx.TCPAck)
	}
	if ctx.TCPPayloadLength != len(payload) {
		t.Errorf("payload length = %d, want %d", ctx.TCPPayloadLength, len(payload))
	}
	if field.Tag != "tcp" {
		t.Errorf("tag = %q, want tcp", field.Tag)
	}
}

func TestTCPShortDataOffsetFails(t *testing.T) {
	seg := tcpSegment(1234, 80, 0, 0, 0, nil)
	seg[12] = 2 << 4 // data offset 2 words = 8 bytes, below the 20-byte minimum
	r := reader.New(seg)
	ctx := &dissector.Context{Pool: intern.New()}

	if _, _, err := TCP(r, ctx); err == nil {
		t.Fatal("expected an error for a TCP data offset below 20 bytes")
	}
}
