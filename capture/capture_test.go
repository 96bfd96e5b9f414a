package capture

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sankooc/shark-go/reader"
)

func classicPcapGlobalHeader(linkType uint32) []byte {
	buf := make([]byte, pcapGlobalHeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], magicClassicBE)
	binary.BigEndian.PutUint16(buf[4:6], 2) // major
	binary.BigEndian.PutUint16(buf[6:8], 4) // minor
	binary.BigEndian.PutUint32(buf[8:12], 0)
	binary.BigEndian.PutUint32(buf[12:16], 0)
	binary.BigEndian.PutUint32(buf[16:20], 262144) // snaplen
	binary.BigEndian.PutUint32(buf[20:24], linkType)
	return buf
}

func TestDetectUnsupportedFileType(t *testing.T) {
	r := reader.New([]byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0})
	_, err := Detect(r)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestPcapZeroPackets(t *testing.T) {
	data := classicPcapGlobalHeader(1)
	r := reader.New(data)
	d, err := Detect(r)
	require.NoError(t, err)
	assert.Equal(t, "pcap", d.FileType())
	assert.Equal(t, 1, d.LinkType(0))

	_, err = d.Next(r)
	assert.ErrorIs(t, err, ErrNeedMoreData)
}

func TestPcapOneRecord(t *testing.T) {
	header := classicPcapGlobalHeader(1)
	payload := []byte{1, 2, 3, 4, 5, 6}

	recHeader := make([]byte, pcapRecordHeaderLen)
	binary.BigEndian.PutUint32(recHeader[0:4], 1000)   // ts_sec
	binary.BigEndian.PutUint32(recHeader[4:8], 500)    // ts_usec
	binary.BigEndian.PutUint32(recHeader[8:12], uint32(len(payload)))
	binary.BigEndian.PutUint32(recHeader[12:16], uint32(len(payload)))

	data := append(header, recHeader...)
	data = append(data, payload...)

	r := reader.New(data)
	d, err := Detect(r)
	require.NoError(t, err)

	frame, err := d.Next(r)
	require.NoError(t, err)
	assert.Equal(t, int64(1000*1_000_000+500), frame.TimestampUs)
	assert.Equal(t, payload, frame.Data)

	_, err = d.Next(r)
	assert.ErrorIs(t, err, ErrNeedMoreData)
}

func TestPcapSwappedEndianness(t *testing.T) {
	header := make([]byte, pcapGlobalHeaderLen)
	binary.LittleEndian.PutUint32(header[0:4], magicClassicBE) // written swapped on disk
	binary.LittleEndian.PutUint16(header[4:6], 2)
	binary.LittleEndian.PutUint16(header[6:8], 4)
	binary.LittleEndian.PutUint32(header[8:12], 0)
	binary.LittleEndian.PutUint32(header[12:16], 0)
	binary.LittleEndian.PutUint32(header[16:20], 262144)
	binary.LittleEndian.PutUint32(header[20:24], 113)

	r := reader.New(header)
	d, err := Detect(r)
	require.NoError(t, err)
	assert.Equal(t, 113, d.LinkType(0))
}

func pcapngBlock(blockType uint32, body []byte) []byte {
	total := uint32(12 + len(body))
	buf := make([]byte, 0, total)
	head := make([]byte, 4)
	binary.BigEndian.PutUint32(head, blockType)
	buf = append(buf, head...)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, total)
	buf = append(buf, lenBuf...)
	buf = append(buf, body...)
	buf = append(buf, lenBuf...)
	return buf
}

func shbBody() []byte {
	body := make([]byte, 16)
	binary.BigEndian.PutUint32(body[0:4], byteOrderMagicBE)
	binary.BigEndian.PutUint16(body[4:6], 1) // major
	binary.BigEndian.PutUint16(body[6:8], 0) // minor
	binary.BigEndian.PutUint64(body[8:16], 0xFFFFFFFFFFFFFFFF)
	return body
}

func idbBody(linkType uint16) []byte {
	body := make([]byte, 8)
	binary.BigEndian.PutUint16(body[0:2], linkType)
	binary.BigEndian.PutUint16(body[2:4], 0)
	binary.BigEndian.PutUint32(body[4:8], 262144)
	return body
}

func epbBody(ifaceID uint32, tsHigh, tsLow uint32, payload []byte) []byte {
	body := make([]byte, 20+len(payload))
	binary.BigEndian.PutUint32(body[0:4], ifaceID)
	binary.BigEndian.PutUint32(body[4:8], tsHigh)
	binary.BigEndian.PutUint32(body[8:12], tsLow)
	binary.BigEndian.PutUint32(body[12:16], uint32(len(payload)))
	binary.BigEndian.PutUint32(body[16:20], uint32(len(payload)))
	copy(body[20:], payload)
	pad := (4 - len(payload)%4) % 4
	return append(body, make([]byte, pad)...)
}

func TestPcapNGTwoInterfaces(t *testing.T) {
	var data []byte
	data = append(data, pcapngBlock(blockTypeSHB, shbBody())...)
	data = append(data, pcapngBlock(blockTypeIDB, idbBody(0))...)
	data = append(data, pcapngBlock(blockTypeIDB, idbBody(1))...)

	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	data = append(data, pcapngBlock(blockTypeEPB, epbBody(1, 0, 1_000_000, payload))...)

	r := reader.New(data)
	d, err := Detect(r)
	require.NoError(t, err)
	assert.Equal(t, "pcapng", d.FileType())

	frame, err := d.Next(r)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.InterfaceID)
	assert.Equal(t, 1, frame.LinkType)
	assert.Equal(t, int64(1_000_000), frame.TimestampUs)
	assert.Equal(t, payload, frame.Data)
}

func TestPcapNGMalformedTrailingLength(t *testing.T) {
	body := idbBody(1)
	buf := pcapngBlock(blockTypeSHB, shbBody())
	buf = append(buf, pcapngBlock(blockTypeIDB, body)...)
	// corrupt the trailing length of the last block
	buf[len(buf)-1] ^= 0xFF

	r := reader.New(buf)
	d, err := Detect(r)
	require.NoError(t, err)

	_, err = d.Next(r)
	assert.ErrorIs(t, err, ErrFormatMismatch)
}

func TestNeedMoreDataRewinds(t *testing.T) {
	header := classicPcapGlobalHeader(1)
	r := reader.New(header)
	d, err := Detect(r)
	require.NoError(t, err)

	pos := r.Pos()
	_, err = d.Next(r)
	assert.ErrorIs(t, err, ErrNeedMoreData)
	assert.Equal(t, pos, r.Pos())
}
