package outbox

import (
	"context"
	"testing"

	"github.com/nanomqtt/nanomqtt/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	writes [][]byte
}

func (r *recordingTransport) Read(context.Context, []byte) (int, error) { return 0, nil }

func (r *recordingTransport) WriteAll(_ context.Context, data []byte) error {
	cp := append([]byte(nil), data...)
	r.writes = append(r.writes, cp)
	return nil
}

func TestEnqueueAndFlushOne(t *testing.T) {
	o := New(64, 4)
	require.NoError(t, o.Enqueue(&packet.Pingreq{}))
	assert.False(t, o.Empty())

	tr := &recordingTransport{}
	require.NoError(t, o.FlushOne(context.Background(), tr))
	assert.True(t, o.Empty())
	require.Len(t, tr.writes, 1)
	assert.Equal(t, []byte{0xC0, 0x00}, tr.writes[0])
}

func TestFlushOneOnEmptyQueueIsNoop(t *testing.T) {
	o := New(64, 4)
	tr := &recordingTransport{}
	require.NoError(t, o.FlushOne(context.Background(), tr))
	assert.Empty(t, tr.writes)
}

func TestQueueFullReturnsErrQueueFull(t *testing.T) {
	o := New(64, 1)
	require.NoError(t, o.Enqueue(&packet.Pingreq{}))
	assert.ErrorIs(t, o.Enqueue(&packet.Pingreq{}), ErrQueueFull)
}

func TestBufferTooSmallReturnsErrBufferTooSmall(t *testing.T) {
	o := New(1, 4)
	assert.ErrorIs(t, o.Enqueue(&packet.Pingreq{}), ErrBufferTooSmall)
}

func TestFIFOOrderAndCompaction(t *testing.T) {
	o := New(64, 4)
	require.NoError(t, o.Enqueue(&packet.Puback{PacketID: 1}))
	require.NoError(t, o.Enqueue(&packet.Puback{PacketID: 2}))
	require.NoError(t, o.Enqueue(&packet.Puback{PacketID: 3}))

	tr := &recordingTransport{}
	require.NoError(t, o.FlushOne(context.Background(), tr))
	require.NoError(t, o.Enqueue(&packet.Puback{PacketID: 4}))
	require.NoError(t, o.FlushOne(context.Background(), tr))
	require.NoError(t, o.FlushOne(context.Background(), tr))
	require.NoError(t, o.FlushOne(context.Background(), tr))

	require.Len(t, tr.writes, 4)
	assert.Equal(t, byte(1), tr.writes[0][3])
	assert.Equal(t, byte(2), tr.writes[1][3])
	assert.Equal(t, byte(3), tr.writes[2][3])
	assert.Equal(t, byte(4), tr.writes[3][3])
	assert.True(t, o.Empty())
}

func TestEnqueueAfterDrainResetsCursor(t *testing.T) {
	o := New(8, 2)
	tr := &recordingTransport{}

	require.NoError(t, o.Enqueue(&packet.Pingreq{}))
	require.NoError(t, o.FlushOne(context.Background(), tr))
	// Buffer has only 8 bytes; if cursor wasn't reset to 0 on drain this
	// would eventually overflow.
	for i := 0; i < 10; i++ {
		require.NoError(t, o.Enqueue(&packet.Pingreq{}))
		require.NoError(t, o.FlushOne(context.Background(), tr))
	}
}
