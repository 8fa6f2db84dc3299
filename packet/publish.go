package packet

import "github.com/nanomqtt/nanomqtt/wire"

// Publish is the PUBLISH packet (MQTT 3.1.1 section 3.3). PacketID is only
// present on the wire when QoS > QoS0; it is ignored on encode and left zero
// on decode otherwise.
//
// Payload borrows from the buffer Decode was called with. Callers that need
// to retain it past the next poll cycle must copy it out.
type Publish struct {
	DUP      bool
	QoS      QoS
	Retain   bool
	Topic    string
	PacketID ID
	Payload  []byte
}

func (p *Publish) Type() Type { return TypePublish }

func (p *Publish) RequiredSpace() int {
	n := 2 + len(p.Topic)
	if p.QoS != QoS0 {
		n += 2
	}
	n += len(p.Payload)
	return n
}

func (p *Publish) EncodeBody(w *wire.Writer) error {
	if err := w.WriteUTF8(p.Topic); err != nil {
		return err
	}
	if p.QoS != QoS0 {
		if err := w.WriteU16(uint16(p.PacketID)); err != nil {
			return err
		}
	}
	return w.WriteBytes(p.Payload)
}

// decodePublish parses a PUBLISH body given the QoS/DUP/Retain already
// extracted from the fixed header flags by the caller.
func decodePublish(flags byte, body []byte) (*Publish, error) {
	dup, qos, retain, err := decodePublishFlags(flags)
	if err != nil {
		return nil, err
	}

	r := wire.NewReader(body)

	topic, err := r.ReadUTF8()
	if err != nil {
		return nil, err
	}

	var id ID
	if qos != QoS0 {
		raw, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		if raw == 0 {
			return nil, ErrMalformedPacket
		}
		id = ID(raw)
	}

	payload, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return nil, err
	}

	return &Publish{
		DUP:      dup,
		QoS:      qos,
		Retain:   retain,
		Topic:    topic,
		PacketID: id,
		Payload:  payload,
	}, nil
}
