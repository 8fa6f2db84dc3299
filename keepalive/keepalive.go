// Package keepalive implements the MQTT keep-alive timer: when to send a
// PINGREQ, and when the lack of a PINGRESP means the connection is dead.
// It holds no goroutine or timer of its own — the caller drives it by
// calling OnSend/OnReceive/ShouldPing/TimedOut against a logical clock.
package keepalive

import (
	"time"

	"github.com/nanomqtt/nanomqtt/transport"
)

// Timer tracks keep-alive state for a single connection. A zero interval
// disables it entirely (ShouldPing and TimedOut always report false), per
// MQTT 3.1.1 section 3.1.2.10.
type Timer struct {
	interval     time.Duration
	halfInterval time.Duration
	lastActivity transport.Instant
	pingOutstanding bool
	enabled      bool
}

// New builds a Timer for the given keep-alive interval, anchored at now
// (typically the moment CONNECT is sent).
func New(interval time.Duration, now transport.Instant) *Timer {
	return &Timer{
		interval:     interval,
		halfInterval: interval / 2,
		lastActivity: now,
		enabled:      interval > 0,
	}
}

// OnSend records that a packet was just sent, resetting the quiet-period
// clock without clearing an outstanding ping expectation.
func (t *Timer) OnSend(now transport.Instant) {
	t.lastActivity = now
}

// OnReceive records that a packet was just received, resetting the
// quiet-period clock and clearing any outstanding ping.
func (t *Timer) OnReceive(now transport.Instant) {
	t.lastActivity = now
	t.pingOutstanding = false
}

// ShouldPing reports whether a PINGREQ should be scheduled now. It returns
// true at most once per round trip: once true, it latches pingOutstanding
// until OnReceive clears it. An error means the clock went backwards
// (transport.ErrTimeError); the caller must tear down the connection.
func (t *Timer) ShouldPing(now transport.Instant) (bool, error) {
	if !t.enabled || t.pingOutstanding {
		return false, nil
	}
	elapsed, err := now.Sub(t.lastActivity)
	if err != nil {
		return false, err
	}
	if elapsed >= t.halfInterval {
		t.pingOutstanding = true
		return true, nil
	}
	return false, nil
}

// TimedOut reports whether a PINGREQ is outstanding and the full keep-alive
// interval has elapsed since the last activity without a response — the
// connection must be considered dead. An error means the clock went
// backwards (transport.ErrTimeError).
func (t *Timer) TimedOut(now transport.Instant) (bool, error) {
	if !t.enabled || !t.pingOutstanding {
		return false, nil
	}
	elapsed, err := now.Sub(t.lastActivity)
	if err != nil {
		return false, err
	}
	return elapsed >= t.interval, nil
}
