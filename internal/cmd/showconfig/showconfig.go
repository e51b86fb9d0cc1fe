// Package showconfig implements the command that prints the effective
// configuration.
package showconfig

import (
	"github.com/urfave/cli/v2"

	"github.com/reglet-dev/hostbridge/config"
	"github.com/reglet-dev/hostbridge/internal/cmd/cmdutil"
)

// Command returns the "config" command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "print the effective configuration as YAML",
		Action: func(c *cli.Context) error {
			cfg, err := cmdutil.LoadConfig(c)
			if err != nil {
				return err
			}
			out, err := config.YAML(cfg)
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(out)
			return err
		},
	}
}
