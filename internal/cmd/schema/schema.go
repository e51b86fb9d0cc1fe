// Package schema implements the command that prints the configuration schema.
package schema

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/reglet-dev/hostbridge/config"
)

// Command returns the "schema" command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "print the JSON schema of the configuration file",
		Action: func(c *cli.Context) error {
			out, err := config.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, string(out))
			return err
		},
	}
}
