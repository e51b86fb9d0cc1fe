// Package durable provides the durable backends mounted under the volatile
// filesystem. Every backend stores entries in a go-datastore Batching
// store: metadata under /meta/<path>, contents under /data/<path>.
package durable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	ds "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"

	"github.com/reglet-dev/hostbridge/domain/entities"
	domainerrors "github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
)

var (
	metaPrefix = ds.NewKey("/meta")
	dataPrefix = ds.NewKey("/data")
)

// Datastore is a ports.DurableBackend over a go-datastore store.
type Datastore struct {
	store ds.Batching
	name  string
}

var _ ports.DurableBackend = (*Datastore)(nil)

// NewDatastore wraps store. name identifies the backend in logs and errors.
func NewDatastore(name string, store ds.Batching) *Datastore {
	return &Datastore{name: name, store: store}
}

// Name returns the backend name.
func (d *Datastore) Name() string {
	return d.name
}

func metaKey(p string) ds.Key {
	return metaPrefix.Child(ds.NewKey(p))
}

func dataKey(p string) ds.Key {
	return dataPrefix.Child(ds.NewKey(p))
}

func (d *Datastore) fail(op, path string, err error) error {
	return &domainerrors.BackendError{Backend: d.name, Operation: op, Path: path, Err: err}
}

// List returns the metadata of every stored entry.
func (d *Datastore) List(ctx context.Context) ([]entities.EntryInfo, error) {
	res, err := d.store.Query(ctx, query.Query{Prefix: metaPrefix.String()})
	if err != nil {
		return nil, d.fail("list", "", err)
	}
	rows, err := res.Rest()
	if err != nil {
		return nil, d.fail("list", "", err)
	}

	out := make([]entities.EntryInfo, 0, len(rows))
	for _, row := range rows {
		var info entities.EntryInfo
		if err := json.Unmarshal(row.Value, &info); err != nil {
			return nil, d.fail("list", strings.TrimPrefix(row.Key, metaPrefix.String()), err)
		}
		out = append(out, info)
	}
	return out, nil
}

// Load returns an entry and, for files, its contents.
// A missing entry yields an error wrapping fs.ErrNotExist.
func (d *Datastore) Load(ctx context.Context, path string) (entities.Entry, error) {
	raw, err := d.store.Get(ctx, metaKey(path))
	if errors.Is(err, ds.ErrNotFound) {
		return entities.Entry{}, d.fail("load", path, fs.ErrNotExist)
	}
	if err != nil {
		return entities.Entry{}, d.fail("load", path, err)
	}

	var info entities.EntryInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return entities.Entry{}, d.fail("load", path, fmt.Errorf("decode metadata: %w", err))
	}
	if info.IsDir() {
		return entities.Entry{EntryInfo: info}, nil
	}

	data, err := d.store.Get(ctx, dataKey(path))
	if errors.Is(err, ds.ErrNotFound) {
		// An empty file is stored without a data key.
		return entities.Entry{EntryInfo: info, Data: []byte{}}, nil
	}
	if err != nil {
		return entities.Entry{}, d.fail("load", path, err)
	}
	return entities.Entry{EntryInfo: info, Data: data}, nil
}

// Store writes an entry's metadata and contents in one batch.
func (d *Datastore) Store(ctx context.Context, entry entities.Entry) error {
	raw, err := json.Marshal(entry.EntryInfo)
	if err != nil {
		return d.fail("store", entry.Path, err)
	}

	b, err := d.store.Batch(ctx)
	if err != nil {
		return d.fail("store", entry.Path, err)
	}
	if err := b.Put(ctx, metaKey(entry.Path), raw); err != nil {
		return d.fail("store", entry.Path, err)
	}
	if entry.IsDir() || len(entry.Data) == 0 {
		err = b.Delete(ctx, dataKey(entry.Path))
	} else {
		err = b.Put(ctx, dataKey(entry.Path), entry.Data)
	}
	if err != nil {
		return d.fail("store", entry.Path, err)
	}
	if err := b.Commit(ctx); err != nil {
		return d.fail("store", entry.Path, err)
	}
	return nil
}

// Remove deletes an entry. Removing a missing entry is not an error.
func (d *Datastore) Remove(ctx context.Context, path string) error {
	b, err := d.store.Batch(ctx)
	if err != nil {
		return d.fail("remove", path, err)
	}
	if err := b.Delete(ctx, metaKey(path)); err != nil {
		return d.fail("remove", path, err)
	}
	if err := b.Delete(ctx, dataKey(path)); err != nil {
		return d.fail("remove", path, err)
	}
	if err := b.Commit(ctx); err != nil {
		return d.fail("remove", path, err)
	}
	return nil
}

// Flush syncs every key to stable storage.
func (d *Datastore) Flush(ctx context.Context) error {
	if err := d.store.Sync(ctx, ds.NewKey("/")); err != nil {
		return d.fail("flush", "", err)
	}
	return nil
}

// Close closes the underlying store.
func (d *Datastore) Close() error {
	return d.store.Close()
}
