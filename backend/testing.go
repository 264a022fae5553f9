package backend

import (
	"context"
	"errors"
	"sync"
)

// Compile-time interface compliance checks
var (
	_ Lookup = (*CountingLookup)(nil)
	_ Lookup = (*FailingLookup)(nil)
)

// CountingLookup wraps a Lookup and records every call. Useful for asserting
// that a lookup was or was not consulted.
type CountingLookup struct {
	Next Lookup

	mu    sync.Mutex
	calls []string
}

// Find records the call and delegates to Next. With no Next, every lookup
// misses.
func (c *CountingLookup) Find(ctx context.Context, name, minVersion string) (Package, error) {
	c.mu.Lock()
	c.calls = append(c.calls, name+">="+minVersion)
	c.mu.Unlock()
	if c.Next == nil {
		return Package{}, &NotFoundError{Name: name, MinVersion: minVersion}
	}
	return c.Next.Find(ctx, name, minVersion)
}

// Calls returns the number of Find calls.
func (c *CountingLookup) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Requests returns the recorded "name>=minVersion" requests in order.
func (c *CountingLookup) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// FailingLookup is a lookup that always returns Err.
// Useful for testing error handling paths.
type FailingLookup struct {
	Err error
}

// NewFailingLookup creates a lookup that fails with err.
func NewFailingLookup(err error) *FailingLookup {
	if err == nil {
		err = errors.New("lookup failed")
	}
	return &FailingLookup{Err: err}
}

// Find always returns the configured error.
func (f *FailingLookup) Find(ctx context.Context, name, minVersion string) (Package, error) {
	return Package{}, f.Err
}
