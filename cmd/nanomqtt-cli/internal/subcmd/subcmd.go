// Package subcmd implements the "sub" subcommand: connect, subscribe, and
// print incoming messages until interrupted.
package subcmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nanomqtt/nanomqtt"
	"github.com/nanomqtt/nanomqtt/cmd/nanomqtt-cli/internal/cliutil"
	"github.com/nanomqtt/nanomqtt/packet"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// Command is the "sub" subcommand.
var Command = &cli.Command{
	Name:      "sub",
	Usage:     "Subscribe to a topic and print incoming messages until Enter is pressed",
	ArgsUsage: "<topic>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "broker", Aliases: []string{"b"}, Value: "localhost:1883", Usage: "broker host:port"},
		&cli.StringFlag{Name: "client-id", Aliases: []string{"i"}, Usage: "MQTT client id (random if omitted)"},
		&cli.IntFlag{Name: "qos", Aliases: []string{"q"}, Value: 0, Usage: "QoS level (0, 1, or 2)"},
	},
	Action: run,
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("sub: expected <topic>")
	}
	topic := cmd.Args().Get(0)

	qos, err := qosFromInt(cmd.Int("qos"))
	if err != nil {
		return err
	}

	sess, err := cliutil.Dial(ctx, cmd.String("broker"), cmd.String("client-id"))
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Client.ScheduleSubscribe(nanomqtt.SubscribeOptions{Topic: topic, QoS: qos}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// A raw-mode stdin reader is the one legitimate second goroutine in
	// this module: it lets Enter cancel the poll loop without blocking
	// on a read that the poll loop itself must also make progress on.
	g.Go(func() error {
		return waitForEnter(gctx)
	})

	g.Go(func() error {
		return pollLoop(gctx, sess)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errInterrupted) {
		return err
	}
	return nil
}

// errInterrupted signals a normal Enter-triggered shutdown, as opposed to a
// real poll/transport failure.
var errInterrupted = errors.New("interrupted")

// pollInterval bounds each read attempt so the loop keeps checking for
// cancellation even when the broker is quiet.
const pollInterval = 500 * time.Millisecond

func pollLoop(ctx context.Context, sess *cliutil.Session) error {
	c := sess.Client
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now, err := sess.Clock.Now()
		if err != nil {
			return fmt.Errorf("clock: %w", err)
		}
		if err := c.PollTimers(now); err != nil {
			return fmt.Errorf("keep-alive: %w", err)
		}

		// Bound each read so a quiet connection still notices ctx
		// cancellation promptly instead of blocking on the socket.
		pollCtx, cancel := context.WithTimeout(ctx, pollInterval)
		ev, err := c.Poll(pollCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if pollCtx.Err() != nil {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}
		if ev == nil {
			continue
		}
		switch ev.Kind {
		case nanomqtt.EventReceived:
			fmt.Printf("[%s] %s\n", ev.Topic, ev.Payload)
		case nanomqtt.EventSubscribed:
			fmt.Printf("subscribed to %q\n", ev.Topic)
		case nanomqtt.EventSubscribeFailed:
			fmt.Printf("subscribe to %q rejected by broker\n", ev.Topic)
		}
	}
}

// waitForEnter puts the terminal into raw mode (when attached to one) so a
// single Enter keypress can interrupt the poll loop without needing a full
// line of buffered input.
func waitForEnter(ctx context.Context) error {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err == nil {
			defer term.Restore(fd, oldState)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		reader := bufio.NewReader(os.Stdin)
		_, _ = reader.ReadByte()
	}()

	select {
	case <-done:
		return errInterrupted
	case <-ctx.Done():
		return nil
	}
}

func qosFromInt(n int64) (packet.QoS, error) {
	switch n {
	case 0:
		return packet.QoS0, nil
	case 1:
		return packet.QoS1, nil
	case 2:
		return packet.QoS2, nil
	default:
		return 0, fmt.Errorf("sub: invalid qos %d", n)
	}
}
