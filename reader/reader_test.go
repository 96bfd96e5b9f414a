package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestU16Endianness(t *testing.T) {
	r := New([]byte{0x01, 0x02})
	v, err := r.U16(BigEndian)
	require.NoError(t, err)
	assert.EqualValues(t, 0x0102, v)

	r2 := New([]byte{0x01, 0x02})
	v2, err := r2.U16(LittleEndian)
	require.NoError(t, err)
	assert.EqualValues(t, 0x0201, v2)
}

func TestEndOfStream(t *testing.T) {
	r := New([]byte{0x01})
	_, err := r.U16(BigEndian)
	assert.True(t, IsEndOfStream(err))
}

func TestBorrowAdvancesAndPeekDoesNot(t *testing.T) {
	r := New([]byte{1, 2, 3, 4})
	peeked, err := r.Peek(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, peeked)
	assert.Equal(t, 0, r.Pos())

	borrowed, err := r.Borrow(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, borrowed)
	assert.Equal(t, 2, r.Pos())
}

func TestRewindBoundedByStart(t *testing.T) {
	r := New([]byte{1, 2, 3})
	require.NoError(t, r.Skip(1))
	require.NoError(t, r.Rewind(1))
	assert.Equal(t, 0, r.Pos())
	assert.True(t, IsEndOfStream(r.Rewind(1)))
}

func TestSubReaderIsBounded(t *testing.T) {
	r := New([]byte{1, 2, 3, 4, 5})
	sub, err := r.SubReader(3)
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Remaining())
	assert.Equal(t, 2, r.Remaining())

	_, err = sub.Borrow(4)
	assert.True(t, IsEndOfStream(err))
}

func TestCloneSharesRegionNotCursor(t *testing.T) {
	r := New([]byte{1, 2, 3, 4})
	require.NoError(t, r.Skip(1))
	clone := r.Clone()
	require.NoError(t, clone.Skip(1))
	assert.Equal(t, 1, r.Pos())
	assert.Equal(t, 2, clone.Pos())
}

func TestLineString(t *testing.T) {
	r := New([]byte("GET / HTTP/1.1\r\nHost: a\r\n\r\n"))
	line, err := r.LineString()
	require.NoError(t, err)
	assert.Equal(t, "GET / HTTP/1.1", line)

	line2, err := r.LineString()
	require.NoError(t, err)
	assert.Equal(t, "Host: a", line2)
}

func TestMACAndIPAddresses(t *testing.T) {
	r := New([]byte{0, 1, 2, 3, 4, 5, 192, 168, 1, 1})
	mac, err := r.MAC()
	require.NoError(t, err)
	assert.Equal(t, "00:01:02:03:04:05", mac.String())

	ip, err := r.IPv4()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", ip.String())
}
