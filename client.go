// Package nanomqtt is an embedded-grade MQTT 3.1.1 client: a single-threaded,
// cooperative-poll wire client with no goroutines or locks in its core and
// no allocation after construction (save one documented exception, see the
// inflight package). Transport, clock, and application routing are supplied
// by the caller.
package nanomqtt

import (
	"context"
	"errors"
	"fmt"

	"github.com/nanomqtt/nanomqtt/internal/clientid"
	"github.com/nanomqtt/nanomqtt/keepalive"
	"github.com/nanomqtt/nanomqtt/observe"
	"github.com/nanomqtt/nanomqtt/outbox"
	"github.com/nanomqtt/nanomqtt/packet"
	"github.com/nanomqtt/nanomqtt/pkg/nanolog"
	"github.com/nanomqtt/nanomqtt/session"
	"github.com/nanomqtt/nanomqtt/transport"
)

// ConnectOptions configures an outbound CONNECT. An empty ClientID is
// filled in by Config.ClientID (clientid.Generate by default).
type ConnectOptions struct {
	ClientID     string
	CleanSession bool
	Username     string
	HasUsername  bool
	Password     []byte
	HasPassword  bool
	Will         *packet.ConnectWill
}

// OutgoingPublish is an application message to publish.
type OutgoingPublish struct {
	Topic   string
	Payload []byte
	QoS     packet.QoS
	Retain  bool
}

// SubscribeOptions requests a single topic subscription.
type SubscribeOptions struct {
	Topic string
	QoS   packet.QoS
}

// Client composes the wire codec, session state machine, outbound queue,
// streaming parser, and keep-alive timer into the single object an
// application drives via Schedule*/Poll/PollTimers.
type Client struct {
	cfg       Config
	transport transport.Transport
	clock     transport.Clock

	reader *packet.Reader
	out    *outbox.Outbox
	sess   *session.Session
	ka     *keepalive.Timer

	observer *observe.Registry
	log      nanolog.Logger
}

// New builds a Client. The transport and clock are not used until the first
// Poll/PollTimers call; nothing is read or written during construction.
func New(cfg Config, t transport.Transport, clock transport.Clock) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("nanomqtt: %w", errNilTransport)
	}
	if clock == nil {
		return nil, fmt.Errorf("nanomqtt: %w", errNilClock)
	}

	return &Client{
		cfg:       cfg,
		transport: t,
		clock:     clock,
		reader:    packet.NewReader(make([]byte, cfg.RxBufSize)),
		out:       outbox.New(cfg.TxBufSize, cfg.OutboxQueueDepth),
		sess:      session.New(cfg.NPubOut, cfg.NSub, cfg.NPubIn),
		observer:  cfg.Observer,
		log:       cfg.logger(),
	}, nil
}

var (
	errNilTransport = errors.New("transport must not be nil")
	errNilClock     = errors.New("clock must not be nil")
)

func (c *Client) clientID(opts ConnectOptions) string {
	if opts.ClientID != "" {
		return opts.ClientID
	}
	if c.cfg.ClientID != nil {
		return c.cfg.ClientID()
	}
	return clientid.Generate()
}

// ScheduleConnect encodes and enqueues a CONNECT. The resulting CONNACK (or
// a transport error) is observed through a later Poll call.
func (c *Client) ScheduleConnect(opts ConnectOptions) error {
	now, err := c.clock.Now()
	if err != nil {
		return err
	}

	action, err := c.sess.Connect(session.ConnectOptions{
		ClientID:     c.clientID(opts),
		CleanSession: opts.CleanSession,
		KeepAlive:    c.cfg.keepAliveSeconds(),
		Username:     opts.Username,
		HasUsername:  opts.HasUsername,
		Password:     opts.Password,
		HasPassword:  opts.HasPassword,
		Will:         opts.Will,
	})
	if err != nil {
		return err
	}
	if err := c.enqueue(action.Packet); err != nil {
		return err
	}

	c.ka = keepalive.New(c.cfg.KeepAlive, now)
	c.ka.OnSend(now)
	c.log.Info("connect scheduled", "client_id", opts.ClientID)
	c.observer.Notify(observe.OnConnect, opts)
	return nil
}

// ScheduleDisconnect enqueues a DISCONNECT. Per MQTT 3.1.1 section 3.14 the
// caller must close the transport once it has been flushed; no reply is
// expected.
func (c *Client) ScheduleDisconnect() error {
	action := c.sess.Disconnect()
	if err := c.enqueue(action.Packet); err != nil {
		return err
	}
	c.observer.Notify(observe.OnDisconnect, nil)
	return nil
}

// SchedulePing enqueues a PINGREQ.
func (c *Client) SchedulePing() error {
	action, err := c.sess.Ping()
	if err != nil {
		return err
	}
	if err := c.enqueue(action.Packet); err != nil {
		return err
	}
	c.observer.Notify(observe.OnPing, nil)
	return nil
}

// SchedulePublish enqueues an outbound PUBLISH.
func (c *Client) SchedulePublish(msg OutgoingPublish) error {
	action, err := c.sess.Publish(session.OutgoingPublish{
		Topic:   msg.Topic,
		Payload: msg.Payload,
		QoS:     msg.QoS,
		Retain:  msg.Retain,
	})
	if err != nil {
		if errors.Is(err, session.ErrNotConnected) {
			return err
		}
		c.observer.Notify(observe.OnPacketIDExhausted, msg.Topic)
		return err
	}
	if err := c.enqueue(action.Packet); err != nil {
		return err
	}
	c.observer.Notify(observe.OnPublishSent, msg.Topic)
	return nil
}

// ScheduleSubscribe enqueues an outbound SUBSCRIBE for a single filter.
func (c *Client) ScheduleSubscribe(opts SubscribeOptions) error {
	action, err := c.sess.Subscribe(session.SubscribeOptions{Topic: opts.Topic, QoS: opts.QoS})
	if err != nil {
		return err
	}
	if err := c.enqueue(action.Packet); err != nil {
		return err
	}
	c.observer.Notify(observe.OnSubscribe, opts.Topic)
	return nil
}

// ScheduleUnsubscribe enqueues an outbound UNSUBSCRIBE for topic.
func (c *Client) ScheduleUnsubscribe(topic string) error {
	action, err := c.sess.Unsubscribe(topic)
	if err != nil {
		return err
	}
	if err := c.enqueue(action.Packet); err != nil {
		return err
	}
	c.observer.Notify(observe.OnUnsubscribe, topic)
	return nil
}

// OutboxEmpty reports whether every scheduled packet has been flushed to
// the transport. Useful for callers that want to drain before tearing down
// (e.g. flushing DISCONNECT before closing the socket).
func (c *Client) OutboxEmpty() bool {
	return c.out.Empty()
}

func (c *Client) enqueue(p packet.Packet) error {
	if p == nil {
		return nil
	}
	return c.out.Enqueue(p)
}

// Poll drives exactly one unit of I/O: if the outbox holds unsent packets,
// it flushes the oldest one; otherwise it attempts to read one packet from
// the transport. It returns a non-nil Event only when that unit of work
// produced one; (nil, nil) means "nothing happened yet, call again".
func (c *Client) Poll(ctx context.Context) (*Event, error) {
	if !c.out.Empty() {
		if err := c.out.FlushOne(ctx, c.transport); err != nil {
			c.sess.Reset()
			c.observer.Notify(observe.OnTransportError, err)
			return nil, err
		}
		if c.ka != nil {
			if now, err := c.clock.Now(); err == nil {
				c.ka.OnSend(now)
			}
		}
		return nil, nil
	}

	p, err := c.reader.Read(ctx, c.transport)
	if err != nil {
		c.sess.Reset()
		c.observer.Notify(observe.OnTransportError, err)
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	if c.ka != nil {
		if now, err := c.clock.Now(); err == nil {
			c.ka.OnReceive(now)
		}
	}

	return c.dispatch(p)
}

// PollTimers checks the keep-alive timer against now, scheduling a PINGREQ
// if the connection has been quiet for half the keep-alive interval, and
// reporting ErrKeepAliveTimeout if a PINGREQ went unanswered for a full
// interval. It performs no I/O itself; the caller must still Poll to
// actually send anything this enqueues.
func (c *Client) PollTimers(now transport.Instant) error {
	if c.ka == nil || !c.sess.Connected() {
		return nil
	}

	timedOut, err := c.ka.TimedOut(now)
	if err != nil {
		return err
	}
	if timedOut {
		c.sess.Reset()
		c.observer.Notify(observe.OnKeepAliveTimeout, nil)
		return ErrKeepAliveTimeout
	}

	shouldPing, err := c.ka.ShouldPing(now)
	if err != nil {
		return err
	}
	if shouldPing {
		action, err := c.sess.Ping()
		if err != nil {
			return err
		}
		if err := c.enqueue(action.Packet); err != nil {
			return err
		}
		c.observer.Notify(observe.OnPing, nil)
	}
	return nil
}

func (c *Client) dispatch(p packet.Packet) (*Event, error) {
	var (
		action session.Action
		err    error
	)

	switch pkt := p.(type) {
	case *packet.Connack:
		action, err = c.sess.OnConnack(pkt)
		c.observer.Notify(observe.OnConnack, pkt)
	case *packet.Publish:
		action, err = c.sess.OnPublish(pkt)
		c.observer.Notify(observe.OnPublishReceived, pkt.Topic)
	case *packet.Puback:
		action, err = c.sess.OnPuback(pkt.PacketID)
		c.observer.Notify(observe.OnPublishAcked, pkt.PacketID)
	case *packet.Pubrec:
		action, err = c.sess.OnPubrec(pkt.PacketID)
	case *packet.Pubrel:
		action, err = c.sess.OnPubrel(pkt.PacketID)
	case *packet.Pubcomp:
		action, err = c.sess.OnPubcomp(pkt.PacketID)
		c.observer.Notify(observe.OnPublishAcked, pkt.PacketID)
	case *packet.Suback:
		action, err = c.sess.OnSuback(pkt)
		c.observer.Notify(observe.OnSuback, pkt.PacketID)
	case *packet.Unsuback:
		action, err = c.sess.OnUnsuback(pkt.PacketID)
		c.observer.Notify(observe.OnUnsuback, pkt.PacketID)
	case *packet.Pingreq:
		action = c.sess.OnPingreq()
	case *packet.Disconnect:
		action = c.sess.OnDisconnect()
		c.observer.Notify(observe.OnDisconnect, nil)
	case *packet.Pingresp:
		action = c.sess.OnPingresp()
		c.observer.Notify(observe.OnPong, nil)
	default:
		err = fmt.Errorf("nanomqtt: unexpected inbound packet type %T", p)
	}

	if err != nil {
		var rc packet.ReturnCode
		if errors.As(err, &rc) {
			c.log.Warn("connect rejected", "return_code", rc.Error())
		}
		return nil, err
	}

	if action.Packet != nil {
		if encErr := c.enqueue(action.Packet); encErr != nil {
			return nil, encErr
		}
	}

	return toPublicEvent(action.Event), nil
}

func toPublicEvent(e *session.Event) *Event {
	if e == nil {
		return nil
	}

	out := &Event{
		SessionPresent: e.SessionPresent,
		Topic:          e.Topic,
		QoS:            e.QoS,
		PacketID:       e.PacketID,
	}
	if e.Publish != nil {
		out.Topic = e.Publish.Topic
		out.Payload = e.Publish.Payload
		out.QoS = e.Publish.QoS
		out.Retain = e.Publish.Retain
	}

	switch e.Kind {
	case session.EventConnected:
		out.Kind = EventConnected
	case session.EventReceived:
		out.Kind = EventReceived
	case session.EventSubscribed:
		out.Kind = EventSubscribed
	case session.EventSubscribeFailed:
		out.Kind = EventSubscribeFailed
	case session.EventUnsubscribed:
		out.Kind = EventUnsubscribed
	case session.EventPublished:
		out.Kind = EventPublished
	case session.EventPong:
		out.Kind = EventPong
	case session.EventDisconnected:
		out.Kind = EventDisconnected
	}
	return out
}
