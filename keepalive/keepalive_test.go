package keepalive

import (
	"testing"
	"time"

	"github.com/nanomqtt/nanomqtt/transport"
	"github.com/stretchr/testify/require"
)

func at(s int) transport.Instant {
	return transport.NewInstant(time.Duration(s) * time.Second)
}

func shouldPing(t *testing.T, timer *Timer, now transport.Instant) bool {
	t.Helper()
	ok, err := timer.ShouldPing(now)
	require.NoError(t, err)
	return ok
}

func timedOut(t *testing.T, timer *Timer, now transport.Instant) bool {
	t.Helper()
	ok, err := timer.TimedOut(now)
	require.NoError(t, err)
	return ok
}

func TestDisabledWhenIntervalZero(t *testing.T) {
	timer := New(0, at(0))
	require.False(t, shouldPing(t, timer, at(1000)))
	require.False(t, timedOut(t, timer, at(1000)))
}

func TestShouldPingAtHalfInterval(t *testing.T) {
	timer := New(10*time.Second, at(0))
	require.False(t, shouldPing(t, timer, at(4)))
	require.True(t, shouldPing(t, timer, at(5)))
}

func TestShouldPingLatchesUntilReceive(t *testing.T) {
	timer := New(10*time.Second, at(0))
	require.True(t, shouldPing(t, timer, at(5)))
	require.False(t, shouldPing(t, timer, at(6)))

	timer.OnReceive(at(6))
	require.False(t, shouldPing(t, timer, at(6)))
	require.True(t, shouldPing(t, timer, at(11)))
}

func TestTimedOutOnlyAfterPingOutstanding(t *testing.T) {
	timer := New(10*time.Second, at(0))
	require.False(t, timedOut(t, timer, at(100)))

	shouldPing(t, timer, at(5))
	require.False(t, timedOut(t, timer, at(9)))
	require.True(t, timedOut(t, timer, at(10)))
}

func TestOnSendDoesNotClearOutstandingPing(t *testing.T) {
	timer := New(10*time.Second, at(0))
	shouldPing(t, timer, at(5))
	timer.OnSend(at(6))
	require.True(t, timedOut(t, timer, at(16)))
}

func TestShouldPingReportsTimeError(t *testing.T) {
	timer := New(10*time.Second, at(10))
	_, err := timer.ShouldPing(at(5))
	require.ErrorIs(t, err, transport.ErrTimeError)
}

func TestTimedOutReportsTimeError(t *testing.T) {
	timer := New(10*time.Second, at(10))
	shouldPing(t, timer, at(15))
	_, err := timer.TimedOut(at(5))
	require.ErrorIs(t, err, transport.ErrTimeError)
}
