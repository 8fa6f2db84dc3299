// Command nanomqtt-cli is a minimal pub/sub command line client built on
// top of the nanomqtt package, mainly useful for poking at a broker during
// development.
package main

import (
	"context"
	"log"
	"os"

	"github.com/nanomqtt/nanomqtt/cmd/nanomqtt-cli/internal/connectcmd"
	"github.com/nanomqtt/nanomqtt/cmd/nanomqtt-cli/internal/pubcmd"
	"github.com/nanomqtt/nanomqtt/cmd/nanomqtt-cli/internal/subcmd"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "nanomqtt-cli",
		Usage: "Minimal MQTT 3.1.1 publish/subscribe client",
		Commands: []*cli.Command{
			connectcmd.Command,
			pubcmd.Command,
			subcmd.Command,
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
