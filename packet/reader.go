package packet

import (
	"context"

	"github.com/nanomqtt/nanomqtt/transport"
	"github.com/nanomqtt/nanomqtt/wire"
)

// Reader assembles whole MQTT packets out of a caller-owned receive buffer,
// reading from a transport.Transport only when the buffered bytes are not
// yet enough to decode the next packet. It never reallocates buf.
//
// The packet returned by Read borrows from buf; it is only valid until the
// next call to Read.
type Reader struct {
	buf        []byte
	start, end int
}

// NewReader wraps buf as the receive window for a fresh connection. buf is
// sized once at construction (spec's RxBufSize) and never grown.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Reset discards any buffered bytes, e.g. after a reconnect with a fresh
// transport.
func (r *Reader) Reset() {
	r.start, r.end = 0, 0
}

// Read parses and returns the next packet, pulling more bytes from t as
// needed. It performs at most one transport read per call so the caller can
// interleave other work (spec's "one unit of work per poll_io" rule); a
// caller that wants a packet right now must call Read again.
func (r *Reader) Read(ctx context.Context, t transport.Transport) (Packet, error) {
	fh, consumed, ok, err := r.tryParseHeader()
	if err != nil {
		return nil, err
	}
	if ok {
		if int(fh.RemainingLength) > len(r.buf) {
			return nil, wire.ErrBufferTooSmall
		}
		if r.end-(r.start+consumed) >= int(fh.RemainingLength) {
			bodyStart := r.start + consumed
			bodyEnd := bodyStart + int(fh.RemainingLength)
			body := r.buf[bodyStart:bodyEnd]

			p, err := Decode(fh, body)
			if err != nil {
				return nil, err
			}

			r.start = bodyEnd
			if r.start == r.end {
				r.start, r.end = 0, 0
			}
			return p, nil
		}
	}

	if err := r.fill(ctx, t); err != nil {
		return nil, err
	}
	return nil, nil
}

// tryParseHeader attempts to parse a fixed header from the unconsumed
// window. It never advances start; Read skips the header only once the
// whole packet is buffered. Callers that get ok=false should fill and retry.
func (r *Reader) tryParseHeader() (fh FixedHeader, headerLen int, ok bool, err error) {
	fh, n, err := ParseFixedHeaderFromBytes(r.buf[r.start:r.end])
	if err == wire.ErrUnexpectedEOF {
		return FixedHeader{}, 0, false, nil
	}
	if err != nil {
		return FixedHeader{}, 0, false, err
	}
	return fh, n, true, nil
}

// fill compacts the window to the front of buf if needed, then issues a
// single transport read into the freed tail space.
func (r *Reader) fill(ctx context.Context, t transport.Transport) error {
	if r.start > 0 {
		n := copy(r.buf, r.buf[r.start:r.end])
		r.start = 0
		r.end = n
	}

	if r.end == len(r.buf) {
		return wire.ErrBufferTooSmall
	}

	n, err := t.Read(ctx, r.buf[r.end:])
	if err != nil {
		return err
	}
	if n == 0 {
		return transport.ErrRemoteClosed
	}

	r.end += n
	return nil
}
