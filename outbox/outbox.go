// Package outbox holds encoded-but-not-yet-sent packets in a single
// pre-allocated byte buffer, as a bounded FIFO of byte ranges. Nothing here
// allocates after construction.
package outbox

import (
	"context"
	"errors"

	"github.com/nanomqtt/nanomqtt/packet"
	"github.com/nanomqtt/nanomqtt/transport"
)

// ErrBufferTooSmall is returned by Enqueue when the packet would not fit in
// the remaining contiguous space even after compaction.
var ErrBufferTooSmall = errors.New("outbox: buffer too small for packet")

// ErrQueueFull is returned by Enqueue when the range queue itself (not the
// byte buffer) has no free slot.
var ErrQueueFull = errors.New("outbox: queue is full")

type span struct {
	start, end int
}

// Outbox is a FIFO of encoded packets backed by one fixed-size buffer.
type Outbox struct {
	buf     []byte
	cursor  int
	queue   []span
	head    int
	count   int
	scratch []span // reused by compact to avoid allocating per call
}

// New builds an Outbox with a tx buffer of txBufSize bytes and room for up
// to queueDepth pending packets.
func New(txBufSize, queueDepth int) *Outbox {
	return &Outbox{
		buf:     make([]byte, txBufSize),
		queue:   make([]span, queueDepth),
		scratch: make([]span, queueDepth),
	}
}

// Empty reports whether there is nothing queued to send.
func (o *Outbox) Empty() bool {
	return o.count == 0
}

// Enqueue encodes p into the buffer and appends its range to the queue.
func (o *Outbox) Enqueue(p packet.Packet) error {
	if o.count == len(o.queue) {
		return ErrQueueFull
	}

	if o.count == 0 {
		o.cursor = 0
	}

	needed := packet.EncodedSize(p)
	if o.cursor+needed > len(o.buf) {
		return ErrBufferTooSmall
	}

	n, err := packet.Encode(p, o.buf[o.cursor:o.cursor+needed])
	if err != nil {
		return err
	}

	tail := (o.head + o.count) % len(o.queue)
	o.queue[tail] = span{start: o.cursor, end: o.cursor + n}
	o.count++
	o.cursor += n

	return nil
}

// FlushOne writes the oldest queued packet in full, then compacts the
// buffer. It is a no-op returning nil if the queue is empty.
func (o *Outbox) FlushOne(ctx context.Context, t transport.Transport) error {
	if o.count == 0 {
		return nil
	}

	s := o.queue[o.head]
	if err := t.WriteAll(ctx, o.buf[s.start:s.end]); err != nil {
		return err
	}

	o.head = (o.head + 1) % len(o.queue)
	o.count--

	o.compact()
	return nil
}

// compact slides every remaining range to the left so the buffer's used
// region starts at 0 again, preserving FIFO order and each range's length.
func (o *Outbox) compact() {
	if o.count == 0 {
		o.cursor = 0
		o.head = 0
		return
	}

	writeCursor := 0
	for i := 0; i < o.count; i++ {
		s := o.queue[(o.head+i)%len(o.queue)]
		n := s.end - s.start
		if s.start < writeCursor {
			panic("outbox: compaction invariant violated: range overlaps already-compacted region")
		}
		copy(o.buf[writeCursor:writeCursor+n], o.buf[s.start:s.end])
		o.scratch[i] = span{start: writeCursor, end: writeCursor + n}
		writeCursor += n
	}

	copy(o.queue, o.scratch[:o.count])
	o.head = 0
	o.cursor = writeCursor
}
