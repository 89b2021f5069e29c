// Package appstate holds process-wide availability state shared between the
// heartbeat monitor and every component that gates writes on it.
package appstate

import "sync/atomic"

// State is the shared read-only flag for the whole node. While the heartbeat
// monitor is running it is the only writer; web handlers and the harvest
// manager read it concurrently. The flag is published atomically so readers
// never need extra coordination.
type State struct {
	readOnly atomic.Bool
}

// New returns a State initialized to the configured startup mode.
func New(readOnly bool) *State {
	s := &State{}
	s.readOnly.Store(readOnly)
	return s
}

// IsReadOnly reports whether the node currently refuses datastore writes.
func (s *State) IsReadOnly() bool {
	return s.readOnly.Load()
}

// SetReadOnly switches the node between read-only and read-write mode.
func (s *State) SetReadOnly(readOnly bool) {
	s.readOnly.Store(readOnly)
}
