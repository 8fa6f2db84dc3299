// Package inflight tracks the receive side of QoS2 delivery: which inbound
// packet ids are still awaiting a PUBREL, so a retransmitted PUBLISH is
// deduplicated and a message is handed to the application exactly once.
package inflight

import (
	"errors"

	"github.com/nanomqtt/nanomqtt/packet"
)

// ErrProtocolViolation is returned when a PUBREL arrives for an id this
// tracker never saw a PUBLISH for.
var ErrProtocolViolation = errors.New("inflight: protocol violation")

type state byte

const (
	awaitPubrel state = iota
	done
)

type entry struct {
	id      packet.ID
	state   state
	topic   string
	payload []byte
}

// Publish is a fixed-capacity ring of QoS2 inbound packet ids, holding a
// copy of each message's topic and payload until its PUBREL arrives.
// Capacity is set once at construction; Track never grows it, instead
// recycling the oldest Done slot (round-robin from a cursor) once full.
//
// The receive buffer a decoded Publish borrows from is only valid until the
// next transport read (see packet.Reader), but a QoS2 message must survive
// until its PUBREL — possibly several poll cycles later — so Track copies
// the payload out. This is the one place in the client that allocates past
// construction; every other path is zero-copy.
type Publish struct {
	entries []entry
	cursor  int
}

// New builds a Publish tracker that can hold up to n concurrent QoS2
// inbound flows.
func New(n int) *Publish {
	return &Publish{entries: make([]entry, 0, n)}
}

// Track records id as awaiting a PUBREL, copying topic and payload so they
// outlive the receive buffer. It reports whether this is the first PUBLISH
// seen for id (dup=false) or a retransmit of one already tracked (dup=true)
// — the caller must send an acknowledgement either way but must not
// deliver the application message twice.
func (p *Publish) Track(id packet.ID, topic string, payload []byte) (dup bool, err error) {
	for i := range p.entries {
		if p.entries[i].id == id {
			return true, nil
		}
	}

	stored := entry{id: id, state: awaitPubrel, topic: topic, payload: append([]byte(nil), payload...)}

	if len(p.entries) < cap(p.entries) {
		p.entries = append(p.entries, stored)
		return false, nil
	}

	for i := 0; i < len(p.entries); i++ {
		if p.entries[p.cursor].state == done {
			p.entries[p.cursor] = stored
			p.advance()
			return false, nil
		}
		p.advance()
	}

	return false, ErrFull
}

// ErrFull is returned by Track when every slot holds a flow still awaiting
// its PUBREL.
var ErrFull = errors.New("inflight: no free slot for incoming QoS2 publish")

// Clear drops every tracked entry, releasing all slots. Used on disconnect,
// since a QoS2 flow left in flight cannot be resumed once the connection
// that started it is gone.
func (p *Publish) Clear() {
	p.entries = p.entries[:0]
	p.cursor = 0
}

func (p *Publish) advance() {
	p.cursor++
	if p.cursor >= cap(p.entries) {
		p.cursor = 0
	}
}

// MarkComplete records that PUBREL has arrived for id, freeing its slot for
// reuse and returning the stored message. deliver is true only the first
// time MarkComplete is called for id — a retransmitted PUBREL returns
// deliver=false so the caller re-sends PUBCOMP without re-delivering.
func (p *Publish) MarkComplete(id packet.ID) (deliver bool, topic string, payload []byte, err error) {
	for i := range p.entries {
		if p.entries[i].id == id {
			wasPending := p.entries[i].state == awaitPubrel
			p.entries[i].state = done
			return wasPending, p.entries[i].topic, p.entries[i].payload, nil
		}
	}
	return false, "", nil, ErrProtocolViolation
}
