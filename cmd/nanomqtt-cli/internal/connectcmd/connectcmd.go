// Package connectcmd implements the "connect" subcommand: a bare
// connectivity check against a broker.
package connectcmd

import (
	"context"
	"fmt"

	"github.com/nanomqtt/nanomqtt/cmd/nanomqtt-cli/internal/cliutil"
	"github.com/urfave/cli/v3"
)

// Command is the "connect" subcommand.
var Command = &cli.Command{
	Name:  "connect",
	Usage: "Connect to a broker, confirm CONNACK, then disconnect",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "broker", Aliases: []string{"b"}, Value: "localhost:1883", Usage: "broker host:port"},
		&cli.StringFlag{Name: "client-id", Aliases: []string{"i"}, Usage: "MQTT client id (random if omitted)"},
	},
	Action: run,
}

func run(ctx context.Context, cmd *cli.Command) error {
	broker := cmd.String("broker")
	sess, err := cliutil.Dial(ctx, broker, cmd.String("client-id"))
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Printf("connected to %s\n", broker)
	return nil
}
