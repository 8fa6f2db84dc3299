package nanomqtt

import (
	"errors"
	"time"

	"github.com/nanomqtt/nanomqtt/observe"
	"github.com/nanomqtt/nanomqtt/pkg/nanolog"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("nanomqtt: invalid config")

// Config carries the construction-time capacities and collaborators for a
// Client. Every capacity is fixed for the Client's lifetime; nothing grows
// past it.
type Config struct {
	// NPubOut bounds the number of outstanding QoS1/QoS2 outbound publishes.
	NPubOut int
	// NSub bounds the subscription table (also shared by in-flight
	// SUBSCRIBE/UNSUBSCRIBE).
	NSub int
	// NPubIn bounds the number of outstanding QoS2 inbound publishes
	// awaiting PUBREL.
	NPubIn int
	// OutboxQueueDepth bounds the number of encoded-but-unsent packets held
	// at once.
	OutboxQueueDepth int
	// RxBufSize is the size of the single receive buffer packets are
	// assembled in.
	RxBufSize int
	// TxBufSize is the size of the outbox's backing buffer.
	TxBufSize int
	// KeepAlive is the MQTT keep-alive interval sent in CONNECT. Zero
	// disables the keep-alive timer, per MQTT 3.1.1 section 3.1.2.10.
	KeepAlive time.Duration

	// Observer receives diagnostic lifecycle notifications. Optional.
	Observer *observe.Registry
	// Logger receives the client's own state-transition lines. Optional;
	// nanolog.Discard is used when nil.
	Logger nanolog.Logger
	// ClientID generates a client identifier when ConnectOptions.ClientID is
	// empty. Optional; defaults to clientid.Generate.
	ClientID func() string
}

// DefaultConfig returns sane embedded-scale defaults: enough headroom for a
// handful of concurrent QoS1/QoS2 flows and a few subscriptions, without
// requiring the caller to think about buffer sizing up front.
func DefaultConfig() Config {
	return Config{
		NPubOut:          8,
		NSub:             8,
		NPubIn:           8,
		OutboxQueueDepth: 8,
		RxBufSize:        4096,
		TxBufSize:        4096,
		KeepAlive:        30 * time.Second,
	}
}

// Validate checks that every capacity is positive and the keep-alive
// interval fits the wire format's 16-bit seconds field.
func (c Config) Validate() error {
	if c.NPubOut <= 0 || c.NSub <= 0 || c.NPubIn <= 0 || c.OutboxQueueDepth <= 0 {
		return ErrInvalidConfig
	}
	if c.RxBufSize <= 0 || c.TxBufSize <= 0 {
		return ErrInvalidConfig
	}
	if c.KeepAlive < 0 || c.KeepAlive/time.Second > 0xFFFF {
		return ErrInvalidConfig
	}
	return nil
}

func (c Config) logger() nanolog.Logger {
	if c.Logger == nil {
		return nanolog.Discard
	}
	return c.Logger
}

func (c Config) keepAliveSeconds() uint16 {
	return uint16(c.KeepAlive / time.Second)
}
