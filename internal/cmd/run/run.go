// Package run implements the command that executes a compiled core.
package run

import (
	"errors"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero/sys"
	"github.com/urfave/cli/v2"

	"github.com/reglet-dev/hostbridge/host"
	"github.com/reglet-dev/hostbridge/infrastructure/durable"
	"github.com/reglet-dev/hostbridge/internal/cmd/cmdutil"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:     "store",
		Usage:    "durable store `driver`: badger or memory",
		Category: "Store",
	},
	&cli.PathFlag{
		Name:     "store-path",
		Usage:    "badger database `dir`",
		Category: "Store",
	},
	&cli.PathFlag{
		Name:        "scratch",
		Usage:       "host `dir` mounted at the guest root",
		DefaultText: "temporary",
		Category:    "Host",
	},
	&cli.StringFlag{
		Name:     "mountpoint",
		Usage:    "guest `path` of the persistent store",
		Category: "Host",
	},
	&cli.StringFlag{
		Name:     "module-name",
		Usage:    "import module `name` of the host functions",
		Category: "Host",
	},
	&cli.IntFlag{
		Name:     "workers",
		Usage:    "concurrent file transfers per sync",
		Category: "Host",
	},
	&cli.BoolFlag{
		Name:     "flush-on-exit",
		Usage:    "flush the persistent store after the core returns",
		Category: "Host",
	},
}

// Command returns the "run" command.
func Command() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "execute a compiled core",
		ArgsUsage: "<core.wasm> [args...]",
		Flags:     flags,
		Action:    run,
	}
}

func run(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return cli.Exit("missing path to core.wasm", 2)
	}

	cfg, err := cmdutil.LoadConfig(c)
	if err != nil {
		return err
	}
	logger, err := cmdutil.Logger(c, cfg)
	if err != nil {
		return err
	}

	wasm, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("read core: %w", err)
	}

	backend, err := durable.Open(cfg.Store.Driver, cfg.Store.Path, logger)
	if err != nil {
		return err
	}

	exec, err := host.NewExecutor(c.Context,
		host.WithBackend(backend),
		host.WithLogger(logger),
		host.WithStdout(c.App.Writer),
		host.WithModuleName(cfg.Host.ModuleName),
		host.WithMountpoint(cfg.Host.Mountpoint),
		host.WithScratchDir(cfg.Host.ScratchDir),
		host.WithClockResolution(cfg.Host.Resolution()),
		host.WithWorkers(cfg.Host.Workers),
		host.WithFlushOnExit(cfg.Host.FlushOnExit),
	)
	if err != nil {
		_ = backend.Close()
		return err
	}

	runErr := exec.Run(c.Context, wasm, c.Args().Tail()...)
	if err := exec.Close(c.Context); err != nil {
		logger.Warn("failed to release executor", "error", err)
	}

	var exitErr *sys.ExitError
	if errors.As(runErr, &exitErr) {
		return cli.Exit("", int(exitErr.ExitCode()))
	}
	return runErr
}
