package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	hostbridge "github.com/reglet-dev/hostbridge"
	"github.com/reglet-dev/hostbridge/internal/cmd/run"
	"github.com/reglet-dev/hostbridge/internal/cmd/schema"
	"github.com/reglet-dev/hostbridge/internal/cmd/showconfig"
)

var flags = []cli.Flag{
	&cli.PathFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "load configuration from YAML `file`",
		EnvVars: []string{"HOSTBRIDGE_CONFIG"},
	},
	// Logging
	&cli.StringFlag{
		Name:    "log-format",
		Aliases: []string{"f"},
		Usage:   "`format` logs as text or json",
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "set logging `level` to debug, info, warn or error",
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:                 "hostbridge",
		Usage:                "run a compiled core with a persistent filesystem",
		UsageText:            "hostbridge [global options] command [command options] [arguments...]",
		Version:              hostbridge.Version,
		EnableBashCompletion: true,
		Flags:                flags,
		Commands: []*cli.Command{
			run.Command(),
			schema.Command(),
			showconfig.Command(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
