package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/starkroot/cli/verify"
	"github.com/nspcc-dev/starkroot/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "starkroot\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a starkroot instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "starkroot"
	ctl.Version = config.Version
	ctl.Usage = "Starknet contract storage root verifier"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, verify.NewCommands()...)
	return ctl
}
