package nanomqtt

import "github.com/nanomqtt/nanomqtt/packet"

// EventKind identifies what happened on a Poll call, mirroring spec's event
// set: Connected, Received, Subscribed, SubscribeFailed, Unsubscribed,
// Published, Disconnected, plus Pong for an inbound PINGRESP.
type EventKind int

const (
	EventConnected EventKind = iota
	EventReceived
	EventSubscribed
	EventSubscribeFailed
	EventUnsubscribed
	EventPublished
	EventDisconnected
	EventPong
)

func (k EventKind) String() string {
	names := [...]string{
		"Connected", "Received", "Subscribed", "SubscribeFailed",
		"Unsubscribed", "Published", "Disconnected", "Pong",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Event is what Poll returns to the application. Only the fields relevant
// to Kind are populated.
type Event struct {
	Kind           EventKind
	SessionPresent bool      // EventConnected
	Topic          string    // EventReceived, EventSubscribed, EventSubscribeFailed, EventUnsubscribed
	Payload        []byte    // EventReceived
	QoS            packet.QoS // EventReceived, EventSubscribed
	Retain         bool      // EventReceived
	PacketID       packet.ID // EventPublished
}
