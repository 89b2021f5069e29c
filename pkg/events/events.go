// Package events defines the node's audit events. Components publish them
// through the node's fan-in channel and sinks persist them.
package events

import (
	"time"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// EventType represents the type of event
type EventType string

const (
	EventTypeStartup    EventType = "startup"
	EventTypeModeChange EventType = "mode_change"
	EventTypeHarvest    EventType = "harvest"
	EventTypeError      EventType = "error"
)

// BaseEvent provides common event fields
type BaseEvent struct {
	EventTimestamp time.Time
	EventType      EventType
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTimestamp
}

func (e BaseEvent) Type() EventType {
	return e.EventType
}

// StartupEvent records a node start.
type StartupEvent struct {
	BaseEvent
	Version string
	SiteID  string
}

func NewStartupEvent(version string, siteID string) StartupEvent {
	return StartupEvent{
		BaseEvent: BaseEvent{EventTimestamp: time.Now(), EventType: EventTypeStartup},
		Version:   version,
		SiteID:    siteID,
	}
}

// ModeChangeEvent records a read-only/read-write transition decided by the
// heartbeat monitor.
type ModeChangeEvent struct {
	BaseEvent
	ReadOnly bool
	Reason   string
}

func NewModeChangeEvent(readOnly bool, reason string) ModeChangeEvent {
	return ModeChangeEvent{
		BaseEvent: BaseEvent{EventTimestamp: time.Now(), EventType: EventTypeModeChange},
		ReadOnly:  readOnly,
		Reason:    reason,
	}
}

// HarvestEvent records the outcome of a single harvest run.
type HarvestEvent struct {
	BaseEvent
	Source string
	Bytes  int64
	Err    string
}

func NewHarvestEvent(source string, bytes int64, err error) HarvestEvent {
	event := HarvestEvent{
		BaseEvent: BaseEvent{EventTimestamp: time.Now(), EventType: EventTypeHarvest},
		Source:    source,
		Bytes:     bytes,
	}
	if err != nil {
		event.Err = err.Error()
	}
	return event
}

// ErrorEvent records an unexpected failure outside the normal event types.
type ErrorEvent struct {
	BaseEvent
	Source  string
	Message string
}

func NewErrorEvent(source string, message string) ErrorEvent {
	return ErrorEvent{
		BaseEvent: BaseEvent{EventTimestamp: time.Now(), EventType: EventTypeError},
		Source:    source,
		Message:   message,
	}
}
