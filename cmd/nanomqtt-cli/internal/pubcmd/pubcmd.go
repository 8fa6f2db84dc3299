// Package pubcmd implements the "pub" subcommand: connect, publish one
// message, wait for its acknowledgement, disconnect.
package pubcmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nanomqtt/nanomqtt"
	"github.com/nanomqtt/nanomqtt/cmd/nanomqtt-cli/internal/cliutil"
	"github.com/nanomqtt/nanomqtt/packet"
	"github.com/urfave/cli/v3"
)

// Command is the "pub" subcommand.
var Command = &cli.Command{
	Name:      "pub",
	Usage:     "Publish a single message to a topic",
	ArgsUsage: "<topic> <message>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "broker", Aliases: []string{"b"}, Value: "localhost:1883", Usage: "broker host:port"},
		&cli.StringFlag{Name: "client-id", Aliases: []string{"i"}, Usage: "MQTT client id (random if omitted)"},
		&cli.IntFlag{Name: "qos", Aliases: []string{"q"}, Value: 0, Usage: "QoS level (0, 1, or 2)"},
		&cli.BoolFlag{Name: "retain", Aliases: []string{"r"}, Usage: "set the RETAIN flag"},
	},
	Action: run,
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 2 {
		return fmt.Errorf("pub: expected <topic> <message>")
	}
	topic := cmd.Args().Get(0)
	message := cmd.Args().Get(1)

	qos, err := qosFromInt(cmd.Int("qos"))
	if err != nil {
		return err
	}

	sess, err := cliutil.Dial(ctx, cmd.String("broker"), cmd.String("client-id"))
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Client.SchedulePublish(nanomqtt.OutgoingPublish{
		Topic:   topic,
		Payload: []byte(message),
		QoS:     qos,
		Retain:  cmd.Bool("retain"),
	}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	pollCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for {
		ev, err := sess.Client.Poll(pollCtx)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		if qos == packet.QoS0 && sess.Client.OutboxEmpty() {
			break
		}
		if ev != nil && ev.Kind == nanomqtt.EventPublished {
			break
		}
		if pollCtx.Err() != nil {
			return fmt.Errorf("publish: %w", pollCtx.Err())
		}
	}

	fmt.Printf("published to %q (qos %d)\n", topic, qos)
	return nil
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
		return 0, fmt.Errorf("pub: invalid qos %d", n)
	}
}
