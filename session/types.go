package session

import "github.com/nanomqtt/nanomqtt/packet"

// ConnectOptions configures an outbound CONNECT.
type ConnectOptions struct {
	ClientID     string
	CleanSession bool
	KeepAlive    uint16
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

// SubscribeOptions requests a single topic subscription. MQTT 3.1.1 allows
// a SUBSCRIBE to carry many filters in one packet; this client only ever
// sends one filter per SUBSCRIBE (see spec Non-goals on batching), one
// Subscription per call.
type SubscribeOptions struct {
	Topic string
	QoS   packet.QoS
}

// Action is the result of feeding one input (a Schedule* call or an inbound
// packet) to the Session state machine. Either field may be nil/zero; both
// can be set at once (e.g. a QoS2 PUBREL both delivers a Received event and
// sends PUBCOMP) and the caller must act on whichever are present.
type Action struct {
	Packet packet.Packet
	Event  *Event
}

func sendAction(p packet.Packet) Action { return Action{Packet: p} }
func eventAction(e Event) Action        { return Action{Event: &e} }

var nothingAction = Action{}

// EventKind identifies what happened, for Event.Kind.
type EventKind byte

const (
	EventConnected EventKind = iota
	EventReceived
	EventSubscribed
	EventSubscribeFailed
	EventUnsubscribed
	EventPublished
	EventPong
	EventDisconnected
)

// Event is an application-visible occurrence surfaced from Poll.
type Event struct {
	Kind           EventKind
	SessionPresent bool // valid on EventConnected
	Publish        *packet.Publish
	Topic          string // valid on EventSubscribed/EventSubscribeFailed/EventUnsubscribed
	QoS            packet.QoS
	PacketID       packet.ID // valid on EventPublished (QoS0 publishes produce no EventPublished)
}
