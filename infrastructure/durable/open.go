package durable

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	badgerds "github.com/ipfs/go-ds-badger2"
)

// Drivers accepted by Open.
const (
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// Open returns the backend for driver. path is required by disk drivers.
func Open(driver, path string, logger *slog.Logger) (*Datastore, error) {
	switch driver {
	case DriverBadger:
		return OpenBadger(path, logger)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// NewMemory returns a backend that lives as long as the process.
func NewMemory() *Datastore {
	return NewDatastore(DriverMemory, dssync.MutexWrap(ds.NewMapDatastore()))
}

// OpenBadger opens (or creates) a badger database at path.
func OpenBadger(path string, logger *slog.Logger) (*Datastore, error) {
	if path == "" {
		return nil, fmt.Errorf("badger store requires a path")
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", path, err)
	}

	opts := badgerds.DefaultOptions
	opts.Logger = badgerLogger{logger: logger.With("backend", DriverBadger, "path", path)}

	store, err := badgerds.NewDatastore(path, &opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store %s: %w", path, err)
	}
	return NewDatastore(DriverBadger, store), nil
}

// badgerLogger routes badger's printf-style logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
