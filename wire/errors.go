// Package wire implements the byte-level primitives MQTT 3.1.1 packets are
// built from: big-endian integers, 16-bit length-prefixed strings and binary
// blobs, and the base-128 variable-length remaining-length integer.
package wire

import "errors"

var (
	// ErrUnexpectedEOF indicates a read requested more bytes than remain.
	ErrUnexpectedEOF = errors.New("wire: unexpected end of input")

	// ErrBufferTooSmall indicates a write requested more space than remains.
	ErrBufferTooSmall = errors.New("wire: buffer too small")

	// ErrMalformedPacket indicates trailing bytes after a fully decoded body.
	ErrMalformedPacket = errors.New("wire: malformed packet")

	// ErrInvalidUTF8 indicates a UTF-8 string field failed validation.
	ErrInvalidUTF8 = errors.New("wire: invalid utf-8 string")

	// ErrMalformedRemainingLength indicates a variable byte integer used a
	// 5th continuation byte or overflowed the 268,435,455 maximum.
	ErrMalformedRemainingLength = errors.New("wire: malformed remaining length")

	// ErrRemainingLengthTooLarge indicates an encode-side value exceeds the
	// four-byte variable byte integer range.
	ErrRemainingLengthTooLarge = errors.New("wire: remaining length exceeds maximum (268,435,455)")
)
