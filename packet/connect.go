package packet

import "github.com/nanomqtt/nanomqtt/wire"

// protocolName and protocolLevel are fixed by MQTT 3.1.1 (OASIS section
// 3.1.2.1/3.1.2.2) — this client speaks no other version.
const (
	protocolName  = "MQTT"
	protocolLevel = 4
)

// ConnectWill describes the message the broker publishes on this client's
// ungraceful disconnect.
type ConnectWill struct {
	Topic   string
	Payload []byte
	QoS     QoS
	Retain  bool
}

// Connect is the CONNECT packet (MQTT 3.1.1 section 3.1). Only one is ever
// sent per session, by the client.
type Connect struct {
	ClientID     string
	CleanSession bool
	KeepAlive    uint16
	Will         *ConnectWill
	Username     string
	HasUsername  bool
	Password     []byte
	HasPassword  bool
}

func (c *Connect) Type() Type { return TypeConnect }

func (c *Connect) RequiredSpace() int {
	n := 2 + len(protocolName) + 1 + 1 + 2 // protocol name, level, flags, keep-alive
	n += 2 + len(c.ClientID)
	if c.Will != nil {
		n += 2 + len(c.Will.Topic)
		n += 2 + len(c.Will.Payload)
	}
	if c.HasUsername {
		n += 2 + len(c.Username)
	}
	if c.HasPassword {
		n += 2 + len(c.Password)
	}
	return n
}

func (c *Connect) connectFlags() byte {
	var f byte
	if c.CleanSession {
		f |= 0x02
	}
	if c.Will != nil {
		f |= 0x04
		f |= byte(c.Will.QoS) << 3
		if c.Will.Retain {
			f |= 0x20
		}
	}
	if c.HasPassword {
		f |= 0x40
	}
	if c.HasUsername {
		f |= 0x80
	}
	return f
}

func (c *Connect) EncodeBody(w *wire.Writer) error {
	if err := w.WriteUTF8(protocolName); err != nil {
		return err
	}
	if err := w.WriteU8(protocolLevel); err != nil {
		return err
	}
	if err := w.WriteU8(c.connectFlags()); err != nil {
		return err
	}
	if err := w.WriteU16(c.KeepAlive); err != nil {
		return err
	}
	if err := w.WriteUTF8(c.ClientID); err != nil {
		return err
	}
	if c.Will != nil {
		if err := w.WriteUTF8(c.Will.Topic); err != nil {
			return err
		}
		if err := w.WriteBinary(c.Will.Payload); err != nil {
			return err
		}
	}
	if c.HasUsername {
		if err := w.WriteUTF8(c.Username); err != nil {
			return err
		}
	}
	if c.HasPassword {
		if err := w.WriteBinary(c.Password); err != nil {
			return err
		}
	}
	return nil
}

// ReturnCode is the CONNACK return code (MQTT 3.1.1 section 3.2.2.3).
type ReturnCode byte

const (
	Accepted                    ReturnCode = 0
	UnacceptableProtocolVersion ReturnCode = 1
	IdentifierRejected          ReturnCode = 2
	ServerUnavailable           ReturnCode = 3
	BadUserNameOrPassword       ReturnCode = 4
	NotAuthorized               ReturnCode = 5
)

func (rc ReturnCode) Error() string {
	switch rc {
	case Accepted:
		return "accepted"
	case UnacceptableProtocolVersion:
		return "unacceptable protocol version"
	case IdentifierRejected:
		return "client identifier rejected"
	case ServerUnavailable:
		return "server unavailable"
	case BadUserNameOrPassword:
		return "bad username or password"
	case NotAuthorized:
		return "not authorized"
	default:
		return "unknown connack return code"
	}
}

// Connack is the CONNACK packet (MQTT 3.1.1 section 3.2).
type Connack struct {
	SessionPresent bool
	ReturnCode     ReturnCode
}

func (c *Connack) Type() Type         { return TypeConnack }
func (c *Connack) RequiredSpace() int { return 2 }
func (c *Connack) EncodeBody(w *wire.Writer) error {
	var flags byte
	if c.SessionPresent {
		flags = 0x01
	}
	if err := w.WriteU8(flags); err != nil {
		return err
	}
	return w.WriteU8(byte(c.ReturnCode))
}

// decodeConnack parses a CONNACK body. body is exactly 2 bytes by the
// fixed header's remaining length.
func decodeConnack(body []byte) (*Connack, error) {
	if len(body) != 2 {
		return nil, ErrMalformedPacket
	}

	flags := body[0]
	if flags&0xFE != 0 {
		return nil, ErrMalformedPacket
	}

	sessionPresent := flags&0x01 != 0
	rc := ReturnCode(body[1])
	if rc > NotAuthorized {
		return nil, ErrInvalidConnectReturnCode
	}

	// If the connection is not accepted the broker MUST NOT set
	// session-present (MQTT 3.1.1 section 3.2.2.2).
	if rc != Accepted && sessionPresent {
		return nil, ErrMalformedPacket
	}

	return &Connack{SessionPresent: sessionPresent, ReturnCode: rc}, nil
}
