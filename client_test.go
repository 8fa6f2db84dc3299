package nanomqtt

import (
	"context"
	"testing"
	"time"

	"github.com/nanomqtt/nanomqtt/packet"
	"github.com/nanomqtt/nanomqtt/transport"
	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-memory stand-in for a broker connection: inbound
// holds bytes the test has "received" and not yet consumed, writes records
// every WriteAll call for assertions.
type fakeTransport struct {
	inbound []byte
	writes  [][]byte
}

func (f *fakeTransport) Read(_ context.Context, buf []byte) (int, error) {
	if len(f.inbound) == 0 {
		return 0, nil
	}
	n := copy(buf, f.inbound)
	f.inbound = f.inbound[n:]
	return n, nil
}

func (f *fakeTransport) WriteAll(_ context.Context, data []byte) error {
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) feed(p packet.Packet) {
	buf := make([]byte, packet.EncodedSize(p))
	n, err := packet.Encode(p, buf)
	if err != nil {
		panic(err)
	}
	f.inbound = append(f.inbound, buf[:n]...)
}

type fakeClock struct {
	now transport.Instant
}

func (c *fakeClock) Now() (transport.Instant, error) { return c.now, nil }

func (c *fakeClock) advance(d time.Duration) {
	elapsed, err := c.now.Sub(transport.Instant{})
	if err != nil {
		panic(err)
	}
	c.now = transport.NewInstant(elapsed + d)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RxBufSize = 256
	cfg.TxBufSize = 256
	return cfg
}

func pollUntilEvent(t *testing.T, c *Client, max int) *Event {
	t.Helper()
	for i := 0; i < max; i++ {
		ev, err := c.Poll(context.Background())
		require.NoError(t, err)
		if ev != nil {
			return ev
		}
	}
	t.Fatalf("no event after %d polls", max)
	return nil
}

func drainOutbox(t *testing.T, c *Client, max int) {
	t.Helper()
	for i := 0; i < max && !c.out.Empty(); i++ {
		_, err := c.Poll(context.Background())
		require.NoError(t, err)
	}
	require.True(t, c.out.Empty())
}

func TestConnectFlowProducesConnectedEvent(t *testing.T) {
	tr := &fakeTransport{}
	clk := &fakeClock{}
	c, err := New(testConfig(), tr, clk)
	require.NoError(t, err)

	require.NoError(t, c.ScheduleConnect(ConnectOptions{ClientID: "t1", CleanSession: true}))
	drainOutbox(t, c, 5)
	require.Len(t, tr.writes, 1)

	tr.feed(&packet.Connack{ReturnCode: packet.Accepted})

	ev := pollUntilEvent(t, c, 5)
	require.Equal(t, EventConnected, ev.Kind)
}

func connectedClient(t *testing.T) (*Client, *fakeTransport, *fakeClock) {
	t.Helper()
	tr := &fakeTransport{}
	clk := &fakeClock{}
	c, err := New(testConfig(), tr, clk)
	require.NoError(t, err)

	require.NoError(t, c.ScheduleConnect(ConnectOptions{ClientID: "t1", CleanSession: true}))
	drainOutbox(t, c, 5)
	tr.feed(&packet.Connack{ReturnCode: packet.Accepted})
	ev := pollUntilEvent(t, c, 5)
	require.Equal(t, EventConnected, ev.Kind)
	return c, tr, clk
}

func TestQoS1PublishRoundTrip(t *testing.T) {
	c, tr, _ := connectedClient(t)

	require.NoError(t, c.SchedulePublish(OutgoingPublish{Topic: "a/b", Payload: []byte("hi"), QoS: packet.QoS1}))
	drainOutbox(t, c, 5)
	require.Len(t, tr.writes, 2) // CONNECT + PUBLISH

	tr.feed(&packet.Puback{PacketID: 1})
	ev := pollUntilEvent(t, c, 5)
	require.Equal(t, EventPublished, ev.Kind)
}

func TestSubscribeThenReceivedMessage(t *testing.T) {
	c, tr, _ := connectedClient(t)

	require.NoError(t, c.ScheduleSubscribe(SubscribeOptions{Topic: "a/b", QoS: packet.QoS0}))
	drainOutbox(t, c, 5)

	tr.feed(&packet.Suback{PacketID: 1, Codes: []packet.SubackCode{packet.SubackMaxQoS0}})
	ev := pollUntilEvent(t, c, 5)
	require.Equal(t, EventSubscribed, ev.Kind)

	tr.feed(&packet.Publish{Topic: "a/b", QoS: packet.QoS0, Payload: []byte("hello")})
	ev = pollUntilEvent(t, c, 5)
	require.Equal(t, EventReceived, ev.Kind)
	require.Equal(t, []byte("hello"), ev.Payload)
}

func TestPollTimersSchedulesPingAtHalfInterval(t *testing.T) {
	c, _, clk := connectedClient(t)
	require.True(t, c.out.Empty())

	clk.advance(c.cfg.KeepAlive / 2)
	require.NoError(t, c.PollTimers(clk.now))
	require.False(t, c.out.Empty())
}

func TestPollTimersReportsKeepAliveTimeout(t *testing.T) {
	c, _, clk := connectedClient(t)

	clk.advance(c.cfg.KeepAlive / 2)
	require.NoError(t, c.PollTimers(clk.now))
	drainOutbox(t, c, 5)

	// No PINGRESP ever arrives; once a full keep-alive interval has passed
	// since the PINGREQ was sent, the connection must be considered dead.
	clk.advance(c.cfg.KeepAlive)
	err := c.PollTimers(clk.now)
	require.ErrorIs(t, err, ErrKeepAliveTimeout)
}

func TestConnectRejectedSurfacesReturnCodeError(t *testing.T) {
	tr := &fakeTransport{}
	clk := &fakeClock{}
	c, err := New(testConfig(), tr, clk)
	require.NoError(t, err)

	require.NoError(t, c.ScheduleConnect(ConnectOptions{ClientID: "t1"}))
	drainOutbox(t, c, 5)

	tr.feed(&packet.Connack{ReturnCode: packet.NotAuthorized})

	var gotErr error
	for i := 0; i < 5 && gotErr == nil; i++ {
		_, gotErr = c.Poll(context.Background())
	}
	require.Error(t, gotErr)
}

func TestBrokerInitiatedDisconnectSurfacesEvent(t *testing.T) {
	c, tr, _ := connectedClient(t)

	tr.feed(&packet.Disconnect{})
	ev := pollUntilEvent(t, c, 5)
	require.Equal(t, EventDisconnected, ev.Kind)
	require.False(t, c.sess.Connected())
}

func TestKeepAliveTimeoutResetsSessionForReconnect(t *testing.T) {
	c, _, clk := connectedClient(t)

	clk.advance(c.cfg.KeepAlive / 2)
	require.NoError(t, c.PollTimers(clk.now))
	drainOutbox(t, c, 5)

	clk.advance(c.cfg.KeepAlive)
	err := c.PollTimers(clk.now)
	require.ErrorIs(t, err, ErrKeepAliveTimeout)
	require.False(t, c.sess.Connected())

	// A fresh CONNECT must be allowed; a session left mid-connected would
	// reject this with ErrAlreadyConnecting.
	require.NoError(t, c.ScheduleConnect(ConnectOptions{ClientID: "t1", CleanSession: true}))
}
