package inflight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackFirstTimeIsNotDup(t *testing.T) {
	p := New(2)
	dup, err := p.Track(1, "a", []byte("x"))
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestTrackRetransmitIsDup(t *testing.T) {
	p := New(2)
	_, err := p.Track(1, "a", []byte("x"))
	require.NoError(t, err)

	dup, err := p.Track(1, "a", []byte("x"))
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestMarkCompleteUnknownIDIsViolation(t *testing.T) {
	p := New(1)
	_, _, _, err := p.MarkComplete(5)
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestMarkCompleteDeliversOnceThenIdempotent(t *testing.T) {
	p := New(1)
	_, err := p.Track(1, "a/b", []byte("payload"))
	require.NoError(t, err)

	deliver, topic, payload, err := p.MarkComplete(1)
	require.NoError(t, err)
	assert.True(t, deliver)
	assert.Equal(t, "a/b", topic)
	assert.Equal(t, []byte("payload"), payload)

	deliver, _, _, err = p.MarkComplete(1)
	require.NoError(t, err)
	assert.False(t, deliver)
}

func TestTrackCopiesPayloadOutOfCallerBuffer(t *testing.T) {
	p := New(1)
	buf := []byte("original")
	_, err := p.Track(1, "a", buf)
	require.NoError(t, err)

	buf[0] = 'X' // simulate the receive buffer being overwritten

	_, _, payload, err := p.MarkComplete(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), payload)
}

func TestFullWithNoDoneSlotsReturnsErrFull(t *testing.T) {
	p := New(1)
	_, err := p.Track(1, "a", nil)
	require.NoError(t, err)

	_, err = p.Track(2, "b", nil)
	assert.ErrorIs(t, err, ErrFull)
}

func TestDoneSlotIsRecycledRoundRobin(t *testing.T) {
	p := New(1)
	_, err := p.Track(1, "a", nil)
	require.NoError(t, err)
	_, _, _, err = p.MarkComplete(1)
	require.NoError(t, err)

	dup, err := p.Track(2, "b", nil)
	require.NoError(t, err)
	assert.False(t, dup)

	// id 2 now occupies the only slot and hasn't completed; no room for 1.
	_, err = p.Track(1, "a", nil)
	assert.ErrorIs(t, err, ErrFull)

	_, _, _, err = p.MarkComplete(2)
	require.NoError(t, err)

	// Once id 2 completes, its slot is free and id 1 can be tracked fresh.
	dup, err = p.Track(1, "a", nil)
	require.NoError(t, err)
	assert.False(t, dup)
}
