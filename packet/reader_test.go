package packet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkTransport replays a fixed sequence of reads, one chunk per call to
// Read, simulating a byte stream arriving piecemeal.
type chunkTransport struct {
	chunks [][]byte
	i      int
}

func (c *chunkTransport) Read(_ context.Context, buf []byte) (int, error) {
	if c.i >= len(c.chunks) {
		return 0, nil
	}
	chunk := c.chunks[c.i]
	c.i++
	n := copy(buf, chunk)
	return n, nil
}

func (c *chunkTransport) WriteAll(_ context.Context, _ []byte) error { return nil }

func TestReaderAssemblesSingleChunkPacket(t *testing.T) {
	// PINGRESP, remaining length 0.
	tr := &chunkTransport{chunks: [][]byte{{0xD0, 0x00}}}
	r := NewReader(make([]byte, 32))

	p, err := r.Read(context.Background(), tr)
	require.NoError(t, err)
	require.Nil(t, p)

	p, err = r.Read(context.Background(), tr)
	require.NoError(t, err)
	require.Equal(t, &Pingresp{}, p)
}

func TestReaderAssemblesPacketSplitAcrossReads(t *testing.T) {
	// PUBLISH QoS0, topic "a", payload "bc" -> remaining length 5.
	full := []byte{0x30, 0x05, 0x00, 0x01, 'a', 'b', 'c'}
	tr := &chunkTransport{chunks: [][]byte{full[:3], full[3:5], full[5:]}}
	r := NewReader(make([]byte, 32))

	var got Packet
	for got == nil {
		p, err := r.Read(context.Background(), tr)
		require.NoError(t, err)
		got = p
	}

	pub, ok := got.(*Publish)
	require.True(t, ok)
	assert.Equal(t, "a", pub.Topic)
	assert.Equal(t, []byte("bc"), pub.Payload)
}

func TestReaderHandlesBackToBackPackets(t *testing.T) {
	full := []byte{0xD0, 0x00, 0xD0, 0x00}
	tr := &chunkTransport{chunks: [][]byte{full}}
	r := NewReader(make([]byte, 32))

	var packets []Packet
	for len(packets) < 2 {
		p, err := r.Read(context.Background(), tr)
		require.NoError(t, err)
		if p != nil {
			packets = append(packets, p)
		}
	}
	assert.Equal(t, &Pingresp{}, packets[0])
	assert.Equal(t, &Pingresp{}, packets[1])
}

func TestReaderZeroByteReadIsRemoteClosed(t *testing.T) {
	tr := &chunkTransport{}
	r := NewReader(make([]byte, 32))

	_, err := r.Read(context.Background(), tr)
	require.Error(t, err)
}

func TestReaderRejectsPacketLargerThanBuffer(t *testing.T) {
	// Remaining length 300 (two-byte varint), buffer only 8 bytes.
	tr := &chunkTransport{chunks: [][]byte{{0x30, 0xAC, 0x02}}}
	r := NewReader(make([]byte, 8))

	_, err := r.Read(context.Background(), tr)
	require.NoError(t, err)
	_, err = r.Read(context.Background(), tr)
	require.Error(t, err)
}
