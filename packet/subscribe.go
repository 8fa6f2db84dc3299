package packet

import "github.com/nanomqtt/nanomqtt/wire"

// SubscribeFilter is one topic filter/QoS pair in a SUBSCRIBE packet.
type SubscribeFilter struct {
	Topic string
	QoS   QoS
}

// Subscribe is the SUBSCRIBE packet (MQTT 3.1.1 section 3.8). Filters must be
// non-empty; the client's topic matching is equality-only (see spec Non-goals
// on wildcard matching) but the broker is free to interpret wildcards.
type Subscribe struct {
	PacketID ID
	Filters  []SubscribeFilter
}

func (s *Subscribe) Type() Type { return TypeSubscribe }

func (s *Subscribe) RequiredSpace() int {
	n := 2
	for _, f := range s.Filters {
		n += 2 + len(f.Topic) + 1
	}
	return n
}

func (s *Subscribe) EncodeBody(w *wire.Writer) error {
	if len(s.Filters) == 0 {
		return ErrMalformedPacket
	}
	if err := w.WriteU16(uint16(s.PacketID)); err != nil {
		return err
	}
	for _, f := range s.Filters {
		if !f.QoS.IsValid() {
			return ErrInvalidQoS
		}
		if err := w.WriteUTF8(f.Topic); err != nil {
			return err
		}
		if err := w.WriteU8(byte(f.QoS)); err != nil {
			return err
		}
	}
	return nil
}

// SubackCode is a SUBACK per-filter return code (MQTT 3.1.1 section 3.9).
type SubackCode byte

const (
	SubackMaxQoS0 SubackCode = 0x00
	SubackMaxQoS1 SubackCode = 0x01
	SubackMaxQoS2 SubackCode = 0x02
	SubackFailure SubackCode = 0x80
)

// Suback is the SUBACK packet (MQTT 3.1.1 section 3.9).
type Suback struct {
	PacketID ID
	Codes    []SubackCode
}

func (s *Suback) Type() Type         { return TypeSuback }
func (s *Suback) RequiredSpace() int { return 2 + len(s.Codes) }

func (s *Suback) EncodeBody(w *wire.Writer) error {
	if len(s.Codes) == 0 {
		return ErrMalformedPacket
	}
	if err := w.WriteU16(uint16(s.PacketID)); err != nil {
		return err
	}
	for _, c := range s.Codes {
		if err := w.WriteU8(byte(c)); err != nil {
			return err
		}
	}
	return nil
}

func decodeSuback(body []byte) (*Suback, error) {
	if len(body) < 3 {
		return nil, ErrMalformedPacket
	}
	r := wire.NewReader(body)

	rawID, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if rawID == 0 {
		return nil, ErrMalformedPacket
	}

	codes := make([]SubackCode, 0, r.Remaining())
	for r.Remaining() > 0 {
		b, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		code := SubackCode(b)
		if code != SubackMaxQoS0 && code != SubackMaxQoS1 && code != SubackMaxQoS2 && code != SubackFailure {
			return nil, ErrMalformedPacket
		}
		codes = append(codes, code)
	}

	return &Suback{PacketID: ID(rawID), Codes: codes}, nil
}

// Unsubscribe is the UNSUBSCRIBE packet (MQTT 3.1.1 section 3.10).
type Unsubscribe struct {
	PacketID ID
	Topics   []string
}

func (u *Unsubscribe) Type() Type { return TypeUnsubscribe }

func (u *Unsubscribe) RequiredSpace() int {
	n := 2
	for _, t := range u.Topics {
		n += 2 + len(t)
	}
	return n
}

func (u *Unsubscribe) EncodeBody(w *wire.Writer) error {
	if len(u.Topics) == 0 {
		return ErrMalformedPacket
	}
	if err := w.WriteU16(uint16(u.PacketID)); err != nil {
		return err
	}
	for _, t := range u.Topics {
		if err := w.WriteUTF8(t); err != nil {
			return err
		}
	}
	return nil
}

// Unsuback is the UNSUBACK packet (MQTT 3.1.1 section 3.11).
type Unsuback struct{ PacketID ID }

func (u *Unsuback) Type() Type          { return TypeUnsuback }
func (u *Unsuback) RequiredSpace() int  { return 2 }
func (u *Unsuback) EncodeBody(w *wire.Writer) error { return w.WriteU16(uint16(u.PacketID)) }

func decodeUnsuback(body []byte) (*Unsuback, error) {
	id, err := decodeAckBody(body)
	if err != nil {
		return nil, err
	}
	return &Unsuback{PacketID: id}, nil
}
