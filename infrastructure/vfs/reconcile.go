package vfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/ports"
)

// side is one end of a reconcile: the volatile view below a mountpoint or
// the durable backend mounted there.
type side interface {
	entries(ctx context.Context) (map[string]entities.EntryInfo, error)
	load(ctx context.Context, info entities.EntryInfo) (entities.Entry, error)
	store(ctx context.Context, entry entities.Entry) error
	remove(ctx context.Context, info entities.EntryInfo) error
}

type reconcileStats struct {
	created int
	removed int
}

// reconcile makes dst match src. Entries missing from dst or differing
// from it are copied, entries only in dst are removed. Directories are
// created parent first, files are copied concurrently, removals run
// child first.
func reconcile(ctx context.Context, src, dst side, workers int) (reconcileStats, error) {
	var stats reconcileStats

	srcSet, err := src.entries(ctx)
	if err != nil {
		return stats, err
	}
	dstSet, err := dst.entries(ctx)
	if err != nil {
		return stats, err
	}

	var dirs, files, removals []entities.EntryInfo
	for p, e := range srcSet {
		if d, ok := dstSet[p]; ok && !e.Differs(d) {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	for p, d := range dstSet {
		if _, ok := srcSet[p]; !ok {
			removals = append(removals, d)
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path < dirs[j].Path })
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	sort.Slice(removals, func(i, j int) bool { return removals[i].Path > removals[j].Path })

	for _, e := range dirs {
		if err := transfer(ctx, src, dst, e); err != nil {
			return stats, err
		}
		stats.created++
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, e := range files {
		g.Go(func() error {
			return transfer(gctx, src, dst, e)
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	stats.created += len(files)

	for _, e := range removals {
		if err := dst.remove(ctx, e); err != nil {
			return stats, err
		}
		stats.removed++
	}
	return stats, nil
}

func transfer(ctx context.Context, src, dst side, info entities.EntryInfo) error {
	entry, err := src.load(ctx, info)
	if err != nil {
		return err
	}
	return dst.store(ctx, entry)
}

// localSide is the volatile view below root.
type localSide struct {
	fs   afero.Fs
	root string
}

func (l *localSide) full(rel string) string {
	return path.Join(l.root, rel)
}

func (l *localSide) entries(_ context.Context) (map[string]entities.EntryInfo, error) {
	set := make(map[string]entities.EntryInfo)
	err := afero.Walk(l.fs, l.root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), l.root)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			return nil
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			// Only files and directories are persisted.
			return nil
		}
		set[rel] = entities.EntryInfo{
			Path:    rel,
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.root, err)
	}
	return set, nil
}

func (l *localSide) load(_ context.Context, info entities.EntryInfo) (entities.Entry, error) {
	if info.IsDir() {
		return entities.Entry{EntryInfo: info}, nil
	}
	data, err := afero.ReadFile(l.fs, l.full(info.Path))
	if err != nil {
		return entities.Entry{}, err
	}
	return entities.Entry{EntryInfo: info, Data: data}, nil
}

func (l *localSide) store(_ context.Context, entry entities.Entry) error {
	full := l.full(entry.Path)

	// A kind change replaces whatever is in the way.
	if existing, err := l.fs.Stat(full); err == nil && existing.IsDir() != entry.IsDir() {
		if err := l.fs.RemoveAll(full); err != nil {
			return err
		}
	}

	if entry.IsDir() {
		return l.fs.MkdirAll(full, permOr(entry.Mode, 0o755))
	}

	if err := l.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return err
	}
	if err := afero.WriteFile(l.fs, full, entry.Data, permOr(entry.Mode, 0o644)); err != nil {
		return err
	}
	// Keep the durable timestamp so the next push sees no change.
	return l.fs.Chtimes(full, entry.ModTime, entry.ModTime)
}

func (l *localSide) remove(_ context.Context, info entities.EntryInfo) error {
	err := l.fs.RemoveAll(l.full(info.Path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func permOr(mode fs.FileMode, def fs.FileMode) fs.FileMode {
	if mode.Perm() == 0 {
		return def
	}
	return mode.Perm()
}

// remoteSide is a durable backend.
type remoteSide struct {
	backend ports.DurableBackend
}

func (r *remoteSide) entries(ctx context.Context) (map[string]entities.EntryInfo, error) {
	list, err := r.backend.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]entities.EntryInfo, len(list))
	for _, e := range list {
		set[e.Path] = e
	}
	return set, nil
}

func (r *remoteSide) load(ctx context.Context, info entities.EntryInfo) (entities.Entry, error) {
	return r.backend.Load(ctx, info.Path)
}

func (r *remoteSide) store(ctx context.Context, entry entities.Entry) error {
	return r.backend.Store(ctx, entry)
}

func (r *remoteSide) remove(ctx context.Context, info entities.EntryInfo) error {
	return r.backend.Remove(ctx, info.Path)
}
