package engine

import (
	"encoding/binary"
	"net"
	"testing"
)

const (
	testPcapGlobalHeaderLen = 24
	testPcapRecordHeaderLen = 16
	magicClassicBE          = 0xa1b2c3d4
)

func classicPcapHeader(linkType uint32) []byte {
	buf := make([]byte, testPcapGlobalHeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], magicClassicBE)
	binary.BigEndian.PutUint16(buf[4:6], 2)
	binary.BigEndian.PutUint16(buf[6:8], 4)
	binary.BigEndian.PutUint32(buf[16:20], 262144)
	binary.BigEndian.PutUint32(buf[20:24], linkType)
	return buf
}

func pcapRecord(payload []byte) []byte {
	rec := make([]byte, testPcapRecordHeaderLen)
	binary.BigEndian.PutUint32(rec[0:4], 1)
	binary.BigEndian.PutUint32(rec[4:8], 0)
	binary.BigEndian.PutUint32(rec[8:12], uint32(len(payload)))
	binary.BigEndian.PutUint32(rec[12:16], uint32(len(payload)))
	return append(rec, payload...)
}

// ethernetIPv4UDPFrame builds a minimal Ethernet II / IPv4 / UDP frame
// carrying a small payload on a port with no registered application
// dissector, so dissection stops cleanly at the UDP layer.
func ethernetIPv4UDPFrame(payload []byte) []byte {
	udp := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint16(udp[0:2], 40000) // src port
	binary.BigEndian.PutUint16(udp[2:4], 9999)  // dst port, unregistered
	binary.BigEndian.PutUint16(udp[4:6], uint16(len(udp)))
	binary.BigEndian.PutUint16(udp[6:8], 0) // checksum
	copy(udp[8:], payload)

	ip := make([]byte, 20+len(udp))
	ip[0] = 0x45 // version 4, IHL 5
	binary.BigEndian.PutUint16(ip[2:4], uint16(len(ip)))
	ip[8] = 64   // ttl
	ip[9] = 17   // UDP
	copy(ip[12:16], net.ParseIP("10.0.0.1").To4())
	copy(ip[16:20], net.ParseIP("10.0.0.2").To4())
	copy(ip[20:], udp)

	eth := make([]byte, 14+len(ip))
	copy(eth[0:6], []byte{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa})   // dst mac
	copy(eth[6:12], []byte{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb})  // src mac
	binary.BigEndian.PutUint16(eth[12:14], 0x0800)              // IPv4
	copy(eth[14:], ip)

	return eth
}

func TestEngineIngestSingleFrame(t *testing.T) {
	frame := ethernetIPv4UDPFrame([]byte{1, 2, 3, 4})

	var data []byte
	data = append(data, classicPcapHeader(1)...)
	data = append(data, pcapRecord(frame)...)

	eng := New(DefaultOptions())
	progress, err := eng.Ingest(data)
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}
	if progress.FramesProduced != 1 {
		t.Fatalf("expected 1 frame produced, got %d", progress.FramesProduced)
	}
	if err := eng.Errors(); err != nil {
		t.Fatalf("expected no non-fatal errors, got %v", err)
	}

	md := eng.Metadata()
	if md.FrameCount != 1 || md.FileType != "pcap" {
		t.Fatalf("unexpected metadata: %+v", md)
	}

	frames := eng.Frames(0, 0)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame summary, got %d", len(frames))
	}
	if eng.ResolveHost(frames[0].Source) != "10.0.0.1" {
		t.Fatalf("expected source host 10.0.0.1, got %s", eng.ResolveHost(frames[0].Source))
	}
	if eng.ResolveHost(frames[0].Destination) != "10.0.0.2" {
		t.Fatalf("expected destination host 10.0.0.2, got %s", eng.ResolveHost(frames[0].Destination))
	}

	tree, err := eng.Frame(0)
	if err != nil {
		t.Fatalf("unexpected detail error: %v", err)
	}
	if len(tree.Roots) == 0 {
		t.Fatal("expected at least one field root in the materialized detail tree")
	}
}

func TestEngineIngestIncrementalAcrossCalls(t *testing.T) {
	frame := ethernetIPv4UDPFrame([]byte{9})

	var data []byte
	data = append(data, classicPcapHeader(1)...)
	data = append(data, pcapRecord(frame)...)
	data = append(data, pcapRecord(frame)...)

	eng := New(DefaultOptions())

	mid := len(data) / 2
	if _, err := eng.Ingest(data[:mid]); err != nil {
		t.Fatalf("unexpected error on first chunk: %v", err)
	}
	if _, err := eng.Ingest(data[mid:]); err != nil {
		t.Fatalf("unexpected error on second chunk: %v", err)
	}

	if got := eng.Metadata().FrameCount; got != 2 {
		t.Fatalf("expected 2 frames across incremental ingest, got %d", got)
	}
}

func TestEngineExposesMetricsCollector(t *testing.T) {
	frame := ethernetIPv4UDPFrame([]byte{1})

	var data []byte
	data = append(data, classicPcapHeader(1)...)
	data = append(data, pcapRecord(frame)...)

	eng := New(DefaultOptions())
	if _, err := eng.Ingest(data); err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}
	if eng.Metrics() == nil {
		t.Fatal("expected a non-nil metrics collector")
	}
}
