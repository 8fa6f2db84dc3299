// Package transport declares the collaborators the client is driven with:
// a byte-stream Transport and a logical Clock. Both are injected at
// construction; this package owns no goroutines and opens no sockets.
package transport

import (
	"context"
	"errors"
	"time"
)

// ErrRemoteClosed is returned by Reader/Client code when a Transport.Read
// reports 0 bytes with a nil error, the MQTT-client convention for "the
// peer closed the connection".
var ErrRemoteClosed = errors.New("transport: remote closed connection")

// ErrTimeError is returned by Instant.Sub when other is later than i — the
// clock went backwards relative to the two readings being compared. The
// caller must treat this as fatal for the connection, the same as any
// other Session-level error.
var ErrTimeError = errors.New("transport: clock went backwards")

// Transport is a single-threaded byte-stream connection to a broker. It is
// the only collaborator the client may block on.
type Transport interface {
	// Read reads at least one byte into buf, or returns an error. A 0, nil
	// result means the remote closed the connection; callers must treat it
	// as ErrRemoteClosed.
	Read(ctx context.Context, buf []byte) (int, error)

	// WriteAll writes the whole of data or returns an error. A context
	// cancellation mid-write leaves the connection unusable: the caller
	// must discard the client, not retry.
	WriteAll(ctx context.Context, data []byte) error
}

// Instant is an opaque logical timestamp from a Clock. The only supported
// operation is Sub against another Instant from the same Clock.
type Instant struct {
	monotonic time.Duration
}

// NewInstant builds an Instant from a duration since some Clock-defined
// epoch. Clock implementations use this to wrap whatever notion of "now"
// they have (time.Now, a hardware tick counter, a test's fake clock).
func NewInstant(sinceEpoch time.Duration) Instant {
	return Instant{monotonic: sinceEpoch}
}

// Sub returns the duration elapsed from other to i, or ErrTimeError if
// other is later than i (the clock went backwards).
func (i Instant) Sub(other Instant) (time.Duration, error) {
	d := i.monotonic - other.monotonic
	if d < 0 {
		return 0, ErrTimeError
	}
	return d, nil
}

// Clock supplies the logical "now" the keep-alive timer is driven against.
// It is never used to sleep or schedule; PollTimers is caller-driven.
type Clock interface {
	Now() (Instant, error)
}
