package credentials

import (
	"context"
	"errors"
)

// Storage keys. Change notifications are keyed on KeyAccess, so every
// backend persists the pair under these exact names.
const (
	KeyAccess  = "access"
	KeyRefresh = "refresh"
)

var (
	// ErrUnsupportedDriver is returned by New for unknown driver names.
	ErrUnsupportedDriver = errors.New("unsupported credential store driver")
)

// Credentials is the access/refresh token pair issued by the API.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Empty reports whether neither token is set.
func (c Credentials) Empty() bool {
	return c.Access == "" && c.Refresh == ""
}

// Store persists the credential pair. Writes are last-write-wins and readers
// are expected to call Get at send time instead of caching a snapshot.
type Store interface {
	// Get returns the stored pair, or nil when nothing is stored.
	Get(ctx context.Context) (*Credentials, error)
	// Set replaces the stored pair wholesale.
	Set(ctx context.Context, creds Credentials) error
	// Clear removes both tokens.
	Clear(ctx context.Context) error
}

// Event describes a change made to a shared store, possibly by another process.
type Event struct {
	Key   string
	Value string
}

// Watcher is implemented by stores that can report changes made outside the
// current process. Watch blocks until ctx is done or the watch fails.
type Watcher interface {
	Watch(ctx context.Context, fn func(Event)) error
}

// Closer is implemented by stores holding connections or file handles.
type Closer interface {
	Close() error
}

// normalize turns an all-empty pair into nil so Get has a single "absent" value.
func normalize(c Credentials) *Credentials {
	if c.Empty() {
		return nil
	}
	return &c
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Store   = (*FSStore)(nil)
	_ Store   = (*KeychainStore)(nil)
	_ Watcher = (*MemoryStore)(nil)
	_ Watcher = (*FSStore)(nil)
)
