package hostfuncs

import "context"

// Names of the functions the compiled core imports.
const (
	FuncRandomSeed    = "get_random_seed"
	FuncUnixTimeNanos = "unix_time_nanoseconds"
	FuncMountStore    = "mount_idbfs"
	FuncSyncStore     = "sync_fs"
)

// Definitions implements HostFuncBundle with the four bridge functions:
//
//	get_random_seed       () -> i64
//	unix_time_nanoseconds () -> i64
//	mount_idbfs           () -> ()
//	sync_fs               () -> i32   (a Status)
func (b *Bridge) Definitions() []Definition {
	return []Definition{
		{
			Name:    FuncRandomSeed,
			Results: []ValueType{ValueTypeI64},
			Handler: func(_ context.Context, stack []uint64) error {
				stack[0] = b.RandomSeed()
				return nil
			},
		},
		{
			Name:    FuncUnixTimeNanos,
			Results: []ValueType{ValueTypeI64},
			Handler: func(_ context.Context, stack []uint64) error {
				stack[0] = b.UnixTimeNanos()
				return nil
			},
		},
		{
			Name: FuncMountStore,
			Handler: func(ctx context.Context, _ []uint64) error {
				return b.Mount(ctx)
			},
		},
		{
			Name:         FuncSyncStore,
			Results:      []ValueType{ValueTypeI32},
			ErrorResults: []uint64{EncodeI32(int32(StatusInternal))},
			Handler: func(ctx context.Context, stack []uint64) error {
				// Sync failures are already logged by the bridge and
				// reported through the status code.
				stack[0] = EncodeI32(int32(StatusOf(b.Sync(ctx))))
				return nil
			},
		},
	}
}
