package session

import "errors"

var (
	// ErrProtocolViolation covers every case where the broker's behavior
	// contradicts MQTT 3.1.1 or this session's own bookkeeping (an ack for
	// an id never allocated, a packet while disconnected, and so on).
	ErrProtocolViolation = errors.New("session: protocol violation")

	// ErrNotConnected is returned by Publish/Subscribe/Unsubscribe/Ping
	// when called outside the Connected state.
	ErrNotConnected = errors.New("session: not connected")

	// ErrAlreadyConnecting is returned by Connect when a CONNECT is already
	// outstanding or the session is already connected.
	ErrAlreadyConnecting = errors.New("session: connect already in progress or already connected")

	// ErrUnknownTopic is returned by Unsubscribe for a topic this session
	// has no subscription record for.
	ErrUnknownTopic = errors.New("session: not subscribed to this topic")

	// ErrTooManySubscriptions is returned by Subscribe when the
	// construction-time subscription table is full.
	ErrTooManySubscriptions = errors.New("session: subscription table is full")

	// ErrNotSubscribed is returned when a PUBLISH arrives for a topic with
	// no active subscription — the broker should never do this, but the
	// client does not trust it blindly.
	ErrNotSubscribed = errors.New("session: publish received for a topic with no active subscription")
)
