// Package cliutil holds the dial-and-handshake logic shared by the CLI's
// pub and sub subcommands.
package cliutil

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/nanomqtt/nanomqtt"
	"github.com/nanomqtt/nanomqtt/internal/clientid"
	"github.com/nanomqtt/nanomqtt/internal/nettransport"
)

// ConnectTimeout bounds how long Dial waits for a CONNACK.
const ConnectTimeout = 10 * time.Second

// Session is a live, CONNACK-accepted client plus the net.Conn backing it,
// so callers can Close the socket on teardown.
type Session struct {
	Client *nanomqtt.Client
	Clock  *nettransport.WallClock
	conn   net.Conn
}

// Close disconnects and tears down the underlying TCP connection.
func (s *Session) Close() error {
	_ = s.Client.ScheduleDisconnect()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for !s.Client.OutboxEmpty() {
		if _, err := s.Client.Poll(ctx); err != nil {
			break
		}
	}
	return s.conn.Close()
}

// Dial opens a TCP connection to broker, builds a Client over it, and
// drives Poll until CONNACK arrives or ctx/ConnectTimeout expires.
func Dial(ctx context.Context, broker, clientID string) (*Session, error) {
	conn, err := net.Dial("tcp", broker)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", broker, err)
	}

	tr := nettransport.New(conn)
	clk := nettransport.NewWallClock()

	c, err := nanomqtt.New(nanomqtt.DefaultConfig(), tr, clk)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if clientID == "" {
		clientID = clientid.Generate()
	}
	if err := c.ScheduleConnect(nanomqtt.ConnectOptions{ClientID: clientID, CleanSession: true}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("schedule connect: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	for {
		ev, err := c.Poll(connectCtx)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("connect: %w", err)
		}
		if ev != nil && ev.Kind == nanomqtt.EventConnected {
			return &Session{Client: c, Clock: clk, conn: conn}, nil
		}
		if connectCtx.Err() != nil {
			conn.Close()
			return nil, fmt.Errorf("connect: %w", connectCtx.Err())
		}
	}
}
