// Package cmdutil holds helpers shared by the hostbridge commands.
package cmdutil

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/reglet-dev/hostbridge/config"
	hostlog "github.com/reglet-dev/hostbridge/log"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = []struct {
	flag string
	key  string
	get  func(c *cli.Context, name string) any
}{
	{"log-level", "log.level", str},
	{"log-format", "log.format", str},
	{"store", "store.driver", str},
	{"store-path", "store.path", str},
	{"scratch", "host.scratch_dir", str},
	{"mountpoint", "host.mountpoint", str},
	{"module-name", "host.module_name", str},
	{"workers", "host.workers", integer},
	{"flush-on-exit", "host.flush_on_exit", boolean},
}

func str(c *cli.Context, name string) any     { return c.String(name) }
func integer(c *cli.Context, name string) any { return c.Int(name) }
func boolean(c *cli.Context, name string) any { return c.Bool(name) }

// Overrides collects the configuration keys set on the command line.
func Overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for _, f := range flagKeys {
		if c.IsSet(f.flag) {
			out[f.key] = f.get(c, f.flag)
		}
	}
	return out
}

// LoadConfig loads the configuration named by --config with the
// command-line overrides applied.
func LoadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"), Overrides(c))
}

// Logger builds the logger described by cfg, writing to the app's error
// stream, and installs it as the slog default.
func Logger(c *cli.Context, cfg *config.Config) (*slog.Logger, error) {
	level, err := hostlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := hostlog.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logger := hostlog.New(
		hostlog.WithLevel(level),
		hostlog.WithFormat(format),
		hostlog.WithOutput(c.App.ErrWriter),
	)
	slog.SetDefault(logger)
	return logger, nil
}
