// Package settings persists the node's key/value settings. The store is also
// the write-availability probe target: the heartbeat monitor proves the
// database writable by saving, flushing and deleting a sentinel setting.
package settings

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Delete when no setting with the given
// name exists.
var ErrNotFound = errors.New("setting not found")

// Setting is a single named value. Names are hierarchical paths such as
// "system/site/siteId".
type Setting struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Store is the persistence surface for settings.
type Store interface {
	// Save upserts a setting and returns the persisted record.
	Save(ctx context.Context, name string, value string) (Setting, error)
	// Flush forces a round trip to the backing store so that any buffered
	// write surfaces its error here.
	Flush(ctx context.Context) error
	// Delete removes a previously saved setting.
	Delete(ctx context.Context, setting Setting) error
	Get(ctx context.Context, name string) (Setting, error)
	Count(ctx context.Context) (int64, error)
	Close()
}
