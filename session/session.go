// Package session implements the MQTT client session state machine: the
// single source of truth for connection state, subscription bookkeeping,
// and both directions of the QoS1/QoS2 acknowledgement flows. It performs
// no I/O — every method takes an input and returns an Action describing
// what the caller (the Client) should do: send a packet, surface an event,
// or do nothing.
package session

import (
	"github.com/nanomqtt/nanomqtt/idpool"
	"github.com/nanomqtt/nanomqtt/inflight"
	"github.com/nanomqtt/nanomqtt/packet"
)

type connState byte

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

type subState byte

const (
	subNew subState = iota
	subPending
	subActive
	subUnsubPending
)

type subscription struct {
	topic         string
	qos           packet.QoS
	state         subState
	subPacketID   packet.ID
	unsubPacketID packet.ID
}

// Session is the MQTT 3.1.1 client state machine. It is not safe for
// concurrent use; the caller (Client) drives it from a single task.
type Session struct {
	state          connState
	sessionPresent bool
	pingOutstanding bool

	pool       *idpool.Pool
	inflightIn *inflight.Publish

	subs []subscription
}

// New builds a Session whose subscription table, packet-id pool, and QoS2
// receive tracker are sized once, at construction, to the given capacities.
func New(nPubOut, nSub, nPubIn int) *Session {
	return &Session{
		pool:       idpool.New(nPubOut, nSub),
		inflightIn: inflight.New(nPubIn),
		subs:       make([]subscription, 0, nSub),
	}
}

// Connected reports whether the session has a live, CONNACK-accepted
// connection.
func (s *Session) Connected() bool {
	return s.state == stateConnected
}

// Connect starts a new connection attempt, producing the CONNECT packet to
// send. It is an error to call Connect while already connecting or
// connected; the caller must Disconnect (or observe a transport error)
// first.
func (s *Session) Connect(opts ConnectOptions) (Action, error) {
	if s.state != stateDisconnected {
		return nothingAction, ErrAlreadyConnecting
	}

	s.state = stateConnecting

	return sendAction(&packet.Connect{
		ClientID:     opts.ClientID,
		CleanSession: opts.CleanSession,
		KeepAlive:    opts.KeepAlive,
		Will:         opts.Will,
		Username:     opts.Username,
		HasUsername:  opts.HasUsername,
		Password:     opts.Password,
		HasPassword:  opts.HasPassword,
	}), nil
}

// teardown performs the cleanup common to every path back to Disconnected:
// a graceful Disconnect, a broker-initiated DISCONNECT (OnDisconnect), and
// an abrupt Reset after a transport failure. It releases the packet-id pool
// and the QoS2 receive tracker, and drops subscriptions unless the broker
// reported session_present for the connection being torn down — a
// surviving session keeps its subscriptions for the broker to resume.
func (s *Session) teardown() {
	s.state = stateDisconnected
	s.pingOutstanding = false
	s.pool.Clear()
	s.inflightIn.Clear()
	if !s.sessionPresent {
		s.subs = s.subs[:0]
	}
}

// Disconnect produces the DISCONNECT packet and resets the session to the
// disconnected state. Per MQTT 3.1.1 section 3.14, once sent the network
// connection must be closed by the caller; the session does not expect a
// reply.
func (s *Session) Disconnect() Action {
	s.teardown()
	return sendAction(&packet.Disconnect{})
}

// Reset forcibly returns the session to the disconnected state without
// sending anything, for use after a transport error or keep-alive timeout
// where no graceful DISCONNECT can be sent.
func (s *Session) Reset() {
	s.teardown()
}

// Publish schedules an outbound PUBLISH. QoS0 publishes are fire-and-forget
// (no packet id, no further tracking); QoS1/2 allocate a packet id from the
// pool.
func (s *Session) Publish(msg OutgoingPublish) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}

	p := &packet.Publish{
		Topic:   msg.Topic,
		Payload: msg.Payload,
		QoS:     msg.QoS,
		Retain:  msg.Retain,
	}

	if msg.QoS == packet.QoS0 {
		return sendAction(p), nil
	}

	id, err := s.pool.NextPubID(msg.QoS == packet.QoS1)
	if err != nil {
		return nothingAction, err
	}
	p.PacketID = id

	return sendAction(p), nil
}

// Subscribe schedules an outbound SUBSCRIBE for a single topic filter. A
// topic already Active or Pending is a no-op (the broker already has, or
// will shortly have, this filter); one UnsubPending for the same topic is a
// protocol violation, since the caller must not resubscribe to a filter it
// is in the middle of removing.
func (s *Session) Subscribe(opts SubscribeOptions) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}

	idx := s.findSub(opts.Topic)
	if idx != -1 {
		switch s.subs[idx].state {
		case subActive, subPending:
			return nothingAction, nil
		case subUnsubPending:
			return nothingAction, ErrProtocolViolation
		}
		// subNew: never subscribed, or a prior subscribe failed. Either way
		// this record is reused below rather than appending a duplicate.
	}

	if idx == -1 && len(s.subs) == cap(s.subs) {
		return nothingAction, ErrTooManySubscriptions
	}

	id, err := s.pool.NextSubID()
	if err != nil {
		return nothingAction, err
	}

	if idx != -1 {
		s.subs[idx].qos = opts.QoS
		s.subs[idx].state = subPending
		s.subs[idx].subPacketID = id
	} else {
		s.subs = append(s.subs, subscription{
			topic:       opts.Topic,
			qos:         opts.QoS,
			state:       subPending,
			subPacketID: id,
		})
	}

	return sendAction(&packet.Subscribe{
		PacketID: id,
		Filters:  []packet.SubscribeFilter{{Topic: opts.Topic, QoS: opts.QoS}},
	}), nil
}

// Unsubscribe schedules an outbound UNSUBSCRIBE for a topic this session
// currently has active. A topic with no subscription record fails
// ErrUnknownTopic. A topic already UnsubPending is a no-op; any other state
// (a failed subscribe, or still Pending a SUBACK) is a protocol violation,
// since there is nothing active yet to unsubscribe from.
func (s *Session) Unsubscribe(topic string) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}

	idx := s.findSub(topic)
	if idx == -1 {
		return nothingAction, ErrUnknownTopic
	}

	switch s.subs[idx].state {
	case subUnsubPending:
		return nothingAction, nil
	case subActive:
		// fall through
	default:
		return nothingAction, ErrProtocolViolation
	}

	id, err := s.pool.NextUnsubID()
	if err != nil {
		return nothingAction, err
	}
	s.subs[idx].state = subUnsubPending
	s.subs[idx].unsubPacketID = id

	return sendAction(&packet.Unsubscribe{
		PacketID: id,
		Topics:   []string{topic},
	}), nil
}

// Ping schedules a PINGREQ.
func (s *Session) Ping() (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}
	s.pingOutstanding = true
	return sendAction(&packet.Pingreq{}), nil
}

func (s *Session) findSub(topic string) int {
	for i := range s.subs {
		if s.subs[i].topic == topic {
			return i
		}
	}
	return -1
}

func (s *Session) findSubByState(state subState, id packet.ID) int {
	for i := range s.subs {
		switch state {
		case subPending:
			if s.subs[i].state == subPending && s.subs[i].subPacketID == id {
				return i
			}
		case subUnsubPending:
			if s.subs[i].state == subUnsubPending && s.subs[i].unsubPacketID == id {
				return i
			}
		}
	}
	return -1
}

// OnConnack handles an inbound CONNACK. On a rejected connection the
// session returns to disconnected and the caller must close the transport.
func (s *Session) OnConnack(p *packet.Connack) (Action, error) {
	if s.state != stateConnecting {
		return nothingAction, ErrProtocolViolation
	}

	if p.ReturnCode != packet.Accepted {
		s.state = stateDisconnected
		return Action{}, p.ReturnCode
	}

	s.state = stateConnected
	s.sessionPresent = p.SessionPresent
	s.pool.Clear()

	if !p.SessionPresent {
		s.subs = s.subs[:0]
	}

	return eventAction(Event{Kind: EventConnected, SessionPresent: p.SessionPresent}), nil
}

// OnPublish handles an inbound PUBLISH, producing the appropriate
// acknowledgement (none for QoS0, PUBACK for QoS1, PUBREC for QoS2). QoS0
// and QoS1 also produce the Received event here; a QoS2 PUBLISH, first or
// duplicate, produces no event, since its delivery happens in OnPubrel.
func (s *Session) OnPublish(p *packet.Publish) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}
	if p.DUP && p.QoS == packet.QoS0 {
		return nothingAction, ErrProtocolViolation
	}
	if !s.IsSubscribedAndActive(p.Topic) {
		return nothingAction, ErrNotSubscribed
	}

	switch p.QoS {
	case packet.QoS0:
		return Action{Event: &Event{Kind: EventReceived, Publish: p}}, nil

	case packet.QoS1:
		if p.PacketID == 0 {
			return nothingAction, ErrProtocolViolation
		}
		return Action{
			Event:  &Event{Kind: EventReceived, Publish: p},
			Packet: &packet.Puback{PacketID: p.PacketID},
		}, nil

	case packet.QoS2:
		if p.PacketID == 0 {
			return nothingAction, ErrProtocolViolation
		}
		if _, err := s.inflightIn.Track(p.PacketID, p.Topic, p.Payload); err != nil {
			return nothingAction, err
		}
		// Delivery is deferred to OnPubrel (spec's "deliver exactly once on
		// first PUBREL"); here we only acknowledge receipt.
		return sendAction(&packet.Pubrec{PacketID: p.PacketID}), nil

	default:
		return nothingAction, ErrProtocolViolation
	}
}

// OnPubrel handles the QoS2 receiver-side continuation: it is where the
// message is actually delivered to the application, on the first PUBREL for
// a given id (a retransmitted PUBREL only re-sends PUBCOMP, without a
// second Received event).
func (s *Session) OnPubrel(id packet.ID) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}

	deliver, topic, payload, err := s.inflightIn.MarkComplete(id)
	if err != nil {
		return nothingAction, err
	}

	action := Action{Packet: &packet.Pubcomp{PacketID: id}}
	if deliver {
		action.Event = &Event{
			Kind:    EventReceived,
			Publish: &packet.Publish{Topic: topic, QoS: packet.QoS2, PacketID: id, Payload: payload},
		}
	}
	return action, nil
}

// OnPuback completes a QoS1 outbound publish.
func (s *Session) OnPuback(id packet.ID) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}
	if err := s.pool.ReleasePubID(id, true); err != nil {
		return nothingAction, err
	}
	return eventAction(Event{Kind: EventPublished, PacketID: id}), nil
}

// OnPubrec advances a QoS2 outbound publish to awaiting-PUBCOMP and
// produces the PUBREL to send.
func (s *Session) OnPubrec(id packet.ID) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}
	if err := s.pool.SetPubrel(id); err != nil {
		return nothingAction, err
	}
	return sendAction(&packet.Pubrel{PacketID: id}), nil
}

// OnPubcomp completes a QoS2 outbound publish.
func (s *Session) OnPubcomp(id packet.ID) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}
	if err := s.pool.ReleasePubID(id, false); err != nil {
		return nothingAction, err
	}
	return eventAction(Event{Kind: EventPublished, PacketID: id}), nil
}

// OnSuback resolves a pending subscription. Per spec.md Non-goals this
// client only ever sends single-filter SUBSCRIBEs, so exactly one return
// code is expected.
func (s *Session) OnSuback(p *packet.Suback) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}
	if len(p.Codes) != 1 {
		return nothingAction, ErrProtocolViolation
	}
	if err := s.pool.ReleaseSubID(p.PacketID); err != nil {
		return nothingAction, err
	}

	idx := s.findSubByState(subPending, p.PacketID)
	if idx == -1 {
		return nothingAction, ErrProtocolViolation
	}

	topic := s.subs[idx].topic
	code := p.Codes[0]
	if code == packet.SubackFailure {
		s.subs[idx].state = subNew
		return eventAction(Event{Kind: EventSubscribeFailed, Topic: topic}), nil
	}

	s.subs[idx].qos = subackQoS(code)
	s.subs[idx].state = subActive
	return eventAction(Event{Kind: EventSubscribed, Topic: topic, QoS: s.subs[idx].qos}), nil
}

func subackQoS(c packet.SubackCode) packet.QoS {
	switch c {
	case packet.SubackMaxQoS1:
		return packet.QoS1
	case packet.SubackMaxQoS2:
		return packet.QoS2
	default:
		return packet.QoS0
	}
}

// OnUnsuback resolves a pending unsubscription, removing the subscription
// from the table.
func (s *Session) OnUnsuback(id packet.ID) (Action, error) {
	if s.state != stateConnected {
		return nothingAction, ErrNotConnected
	}
	if err := s.pool.ReleaseUnsubID(id); err != nil {
		return nothingAction, err
	}

	idx := s.findSubByState(subUnsubPending, id)
	if idx == -1 {
		return nothingAction, ErrProtocolViolation
	}
	topic := s.subs[idx].topic

	s.subs = append(s.subs[:idx], s.subs[idx+1:]...)
	return eventAction(Event{Kind: EventUnsubscribed, Topic: topic}), nil
}

// OnPingreq answers a broker-initiated PINGREQ (unusual for a client
// connection but the wire format allows it) with PINGRESP.
func (s *Session) OnPingreq() Action {
	return sendAction(&packet.Pingresp{})
}

// OnDisconnect handles a broker-initiated DISCONNECT. It tears the session
// down the same way Disconnect does, except it surfaces an event instead of
// sending a packet — there is nothing left to reply with. A no-op if the
// session is already Disconnected.
func (s *Session) OnDisconnect() Action {
	if s.state == stateDisconnected {
		return nothingAction
	}
	s.teardown()
	return eventAction(Event{Kind: EventDisconnected})
}

// OnPingresp clears the outstanding-ping flag the Ping call set.
func (s *Session) OnPingresp() Action {
	s.pingOutstanding = false
	return eventAction(Event{Kind: EventPong})
}

// IsSubscribedAndActive reports whether topic has an active subscription,
// for the client to decide whether an inbound PUBLISH should be delivered.
// The client's topic matching is equality-only (see spec Non-goals on
// wildcard matching); the broker may still apply its own wildcard rules
// before ever sending the message.
func (s *Session) IsSubscribedAndActive(topic string) bool {
	idx := s.findSub(topic)
	return idx != -1 && s.subs[idx].state == subActive
}
