package hostfuncs

import (
	"context"
	"sync"
	"time"

	"github.com/reglet-dev/hostbridge/domain/entities"
	domainerrors "github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
)

// seqEntropy returns its values in order, then zeros.
type seqEntropy struct {
	values []uint32
	mu     sync.Mutex
}

func (s *seqEntropy) Uint32() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

type nopBackend struct{ name string }

func (b nopBackend) Name() string { return b.name }
func (nopBackend) List(context.Context) ([]entities.EntryInfo, error) {
	return nil, nil
}
func (nopBackend) Load(context.Context, string) (entities.Entry, error) {
	return entities.Entry{}, nil
}
func (nopBackend) Store(context.Context, entities.Entry) error { return nil }
func (nopBackend) Remove(context.Context, string) error        { return nil }
func (nopBackend) Flush(context.Context) error                 { return nil }
func (nopBackend) Close() error                                { return nil }

type syncRequest struct {
	done     func(error)
	populate bool
}

// fakeFS is a host filesystem whose sync completes only when the test
// acknowledges it, unless auto is set.
type fakeFS struct {
	dirs     map[string]bool
	mounts   map[string]ports.DurableBackend
	requests chan syncRequest
	mkdirErr error
	autoErr  error
	calls    []bool
	mu       sync.Mutex
	auto     bool
	twice    bool
}

func newFakeFS(auto bool) *fakeFS {
	return &fakeFS{
		dirs:     make(map[string]bool),
		mounts:   make(map[string]ports.DurableBackend),
		requests: make(chan syncRequest, 8),
		auto:     auto,
	}
}

func (f *fakeFS) Mkdir(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mkdirErr != nil {
		return f.mkdirErr
	}
	f.dirs[path] = true
	return nil
}

func (f *fakeFS) Mount(backend ports.DurableBackend, mountpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.mounts[mountpoint]; ok && existing != backend {
		return domainerrors.ErrMountBusy
	}
	f.mounts[mountpoint] = backend
	return nil
}

func (f *fakeFS) Unmount(mountpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mounts, mountpoint)
	return nil
}

func (f *fakeFS) IsMounted(mountpoint string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.mounts[mountpoint]
	return ok
}

func (f *fakeFS) SyncFS(_ context.Context, populate bool, callback func(error)) {
	f.mu.Lock()
	f.calls = append(f.calls, populate)
	auto, autoErr, twice := f.auto, f.autoErr, f.twice
	f.mu.Unlock()

	if auto {
		go func() {
			callback(autoErr)
			if twice {
				callback(nil)
			}
		}()
		return
	}
	f.requests <- syncRequest{populate: populate, done: callback}
}

func (f *fakeFS) syncCalls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.calls...)
}

func (f *fakeFS) mountCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mounts)
}
