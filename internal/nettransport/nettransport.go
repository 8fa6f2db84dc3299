// Package nettransport adapts a net.Conn to the client's transport.Transport
// contract, the way the teacher's network.Connection wraps a socket with
// read/write deadlines — except here the deadline comes from the caller's
// context rather than a fixed configured duration, since Read/WriteAll are
// already context-aware.
package nettransport

import (
	"context"
	"net"
	"time"

	"github.com/nanomqtt/nanomqtt/transport"
)

// Conn wraps a net.Conn (typically a *net.TCPConn) as a transport.Transport.
type Conn struct {
	conn net.Conn
}

// New wraps conn. The caller owns closing it.
func New(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

func (c *Conn) Read(ctx context.Context, buf []byte) (int, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}
	return c.conn.Read(buf)
}

func (c *Conn) WriteAll(ctx context.Context, data []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}
	for len(data) > 0 {
		n, err := c.conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// WallClock is a transport.Clock backed by time.Now, anchored at the moment
// it's constructed so Instant values stay small regardless of wall-clock
// epoch.
type WallClock struct {
	start time.Time
}

// NewWallClock builds a WallClock anchored at the current time.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (w *WallClock) Now() (transport.Instant, error) {
	return transport.NewInstant(time.Since(w.start)), nil
}
