package sink

import (
	"context"

	"github.com/geocat/catalogd/pkg/events"
)

// Sink processes events
type Sink interface {
	// Process handles an incoming event
	Process(ctx context.Context, event events.Event) error

	// Name returns the sink identifier
	Name() string

	// Close any resources that need cleanup
	Close() error
}
