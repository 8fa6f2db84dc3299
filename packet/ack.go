package packet

import "github.com/nanomqtt/nanomqtt/wire"

// Puback acknowledges a QoS1 PUBLISH (MQTT 3.1.1 section 3.4).
type Puback struct{ PacketID ID }

func (p *Puback) Type() Type          { return TypePuback }
func (p *Puback) RequiredSpace() int  { return 2 }
func (p *Puback) EncodeBody(w *wire.Writer) error { return w.WriteU16(uint16(p.PacketID)) }

// Pubrec is the first acknowledgement of a QoS2 PUBLISH (MQTT 3.1.1 section
// 3.5), sent by the receiver.
type Pubrec struct{ PacketID ID }

func (p *Pubrec) Type() Type          { return TypePubrec }
func (p *Pubrec) RequiredSpace() int  { return 2 }
func (p *Pubrec) EncodeBody(w *wire.Writer) error { return w.WriteU16(uint16(p.PacketID)) }

// Pubrel continues a QoS2 exchange after PUBREC (MQTT 3.1.1 section 3.6).
type Pubrel struct{ PacketID ID }

func (p *Pubrel) Type() Type          { return TypePubrel }
func (p *Pubrel) RequiredSpace() int  { return 2 }
func (p *Pubrel) EncodeBody(w *wire.Writer) error { return w.WriteU16(uint16(p.PacketID)) }

// Pubcomp completes a QoS2 exchange (MQTT 3.1.1 section 3.7).
type Pubcomp struct{ PacketID ID }

func (p *Pubcomp) Type() Type          { return TypePubcomp }
func (p *Pubcomp) RequiredSpace() int  { return 2 }
func (p *Pubcomp) EncodeBody(w *wire.Writer) error { return w.WriteU16(uint16(p.PacketID)) }

func decodeAckBody(body []byte) (ID, error) {
	if len(body) != 2 {
		return 0, ErrMalformedPacket
	}
	r := wire.NewReader(body)
	raw, err := r.ReadU16()
	if err != nil {
		return 0, err
	}
	if raw == 0 {
		return 0, ErrMalformedPacket
	}
	return ID(raw), nil
}

func decodePuback(body []byte) (*Puback, error) {
	id, err := decodeAckBody(body)
	if err != nil {
		return nil, err
	}
	return &Puback{PacketID: id}, nil
}

func decodePubrec(body []byte) (*Pubrec, error) {
	id, err := decodeAckBody(body)
	if err != nil {
		return nil, err
	}
	return &Pubrec{PacketID: id}, nil
}

func decodePubrel(body []byte) (*Pubrel, error) {
	id, err := decodeAckBody(body)
	if err != nil {
		return nil, err
	}
	return &Pubrel{PacketID: id}, nil
}

func decodePubcomp(body []byte) (*Pubcomp, error) {
	id, err := decodeAckBody(body)
	if err != nil {
		return nil, err
	}
	return &Pubcomp{PacketID: id}, nil
}
