package packet

// Decode parses a complete packet body given its fixed header. body must be
// exactly fh.RemainingLength bytes, sliced from the caller's receive buffer —
// the returned Packet may borrow from it (see Publish.Payload).
func Decode(fh FixedHeader, body []byte) (Packet, error) {
	if uint32(len(body)) != fh.RemainingLength {
		return nil, ErrMalformedPacket
	}

	switch fh.Type {
	case TypeConnack:
		return decodeConnack(body)
	case TypePublish:
		return decodePublish(fh.Flags, body)
	case TypePuback:
		return decodePuback(body)
	case TypePubrec:
		return decodePubrec(body)
	case TypePubrel:
		return decodePubrel(body)
	case TypePubcomp:
		return decodePubcomp(body)
	case TypeSuback:
		return decodeSuback(body)
	case TypeUnsuback:
		return decodeUnsuback(body)
	case TypePingresp:
		if err := decodeEmptyBody(body); err != nil {
			return nil, err
		}
		return &Pingresp{}, nil
	case TypePingreq:
		// Brokers rarely send PINGREQ to a client, but the wire format
		// allows it; supported for completeness (spec's on_pingreq).
		if err := decodeEmptyBody(body); err != nil {
			return nil, err
		}
		return &Pingreq{}, nil
	case TypeDisconnect:
		if err := decodeEmptyBody(body); err != nil {
			return nil, err
		}
		return &Disconnect{}, nil

	// CONNECT, SUBSCRIBE, and UNSUBSCRIBE are only ever sent by this
	// client, never received from a broker.
	case TypeConnect, TypeSubscribe, TypeUnsubscribe:
		return nil, ErrUnsupportedPacket
	default:
		return nil, ErrInvalidPacketType
	}
}
