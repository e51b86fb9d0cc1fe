package entities

import (
	"io/fs"
	"time"
)

// EntryInfo describes one filesystem entry below a mountpoint.
// Path is slash separated and relative to the mountpoint.
type EntryInfo struct {
	ModTime time.Time   `json:"mtime"`
	Path    string      `json:"path"`
	Mode    fs.FileMode `json:"mode"`
}

// IsDir reports whether the entry is a directory.
func (e EntryInfo) IsDir() bool {
	return e.Mode.IsDir()
}

// Differs reports whether other must be overwritten by e during a sync.
// Directories are compared by kind only; their timestamps change whenever
// a child is added and would otherwise cause every sync to rewrite them.
func (e EntryInfo) Differs(other EntryInfo) bool {
	if e.IsDir() != other.IsDir() {
		return true
	}
	if e.IsDir() {
		return false
	}
	return !e.ModTime.Equal(other.ModTime)
}

// Entry is an EntryInfo together with the file contents.
// Data is nil for directories.
type Entry struct {
	Data []byte `json:"-"`
	EntryInfo
}
