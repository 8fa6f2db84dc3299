package packet

import "github.com/nanomqtt/nanomqtt/wire"

// Pingreq is the PINGREQ packet (MQTT 3.1.1 section 3.12): no variable
// header, no payload.
type Pingreq struct{}

func (*Pingreq) Type() Type                     { return TypePingreq }
func (*Pingreq) RequiredSpace() int             { return 0 }
func (*Pingreq) EncodeBody(w *wire.Writer) error { return nil }

// Pingresp is the PINGRESP packet (MQTT 3.1.1 section 3.13).
type Pingresp struct{}

func (*Pingresp) Type() Type                     { return TypePingresp }
func (*Pingresp) RequiredSpace() int             { return 0 }
func (*Pingresp) EncodeBody(w *wire.Writer) error { return nil }

// Disconnect is the DISCONNECT packet (MQTT 3.1.1 section 3.14).
type Disconnect struct{}

func (*Disconnect) Type() Type                     { return TypeDisconnect }
func (*Disconnect) RequiredSpace() int             { return 0 }
func (*Disconnect) EncodeBody(w *wire.Writer) error { return nil }

func decodeEmptyBody(body []byte) error {
	if len(body) != 0 {
		return ErrMalformedPacket
	}
	return nil
}
