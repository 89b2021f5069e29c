// Package heartbeat implements the DB availability monitor: a background
// loop that periodically proves the settings store writable and keeps the
// process-wide read-only flag consistent with what it finds.
package heartbeat

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geocat/catalogd/pkg/appstate"
	"github.com/geocat/catalogd/pkg/events"
	"github.com/geocat/catalogd/pkg/metrics"
	"github.com/geocat/catalogd/pkg/settings"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const sentinelPrefix = "system/monitor/dbHeartbeat/"

// SettingsStore is the slice of the settings store the probe needs.
type SettingsStore interface {
	Save(ctx context.Context, name string, value string) (settings.Setting, error)
	Flush(ctx context.Context) error
	Delete(ctx context.Context, setting settings.Setting) error
}

// ReadOnlyNotifier receives the monitor's verdict whenever it changes. The
// harvest manager satisfies this.
type ReadOnlyNotifier interface {
	SetReadOnly(readOnly bool)
}

// Monitor probes write availability on a fixed-delay schedule and flips the
// shared read-only flag on transitions. While it runs it is the only writer
// of that flag.
type Monitor struct {
	config   Config
	state    *appstate.State
	store    SettingsStore
	notifier ReadOnlyNotifier
	logger   *logrus.Logger

	// Publish, when set before Start, receives a ModeChangeEvent on every
	// transition. It must not block.
	Publish func(event events.Event)

	running  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(config Config, state *appstate.State, store SettingsStore, notifier ReadOnlyNotifier, logger *logrus.Logger) *Monitor {
	return &Monitor{
		config:   config,
		state:    state,
		store:    store,
		notifier: notifier,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the monitor worker. It is a no-op when the monitor is
// disabled and an error when called twice.
func (m *Monitor) Start(ctx context.Context) error {
	if !m.config.Enabled {
		m.logger.Debug("DB availability monitor is disabled")
		return nil
	}
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("DB availability monitor already started")
	}

	m.logger.Infof("Starting DB availability monitor (first probe in %s, then every %s)",
		m.config.InitialDelay(), m.config.FixedDelay())
	go m.run(ctx)
	return nil
}

// Stop cancels the schedule and waits for an in-flight tick to finish. It is
// idempotent; no tick starts after Stop returns.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	if m.running.Load() {
		<-m.done
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	// The timer is re-armed only after a tick returns, so two ticks can
	// never overlap.
	timer := time.NewTimer(m.config.InitialDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-timer.C:
			m.tick(ctx)
			timer.Reset(m.config.FixedDelay())
		}
	}
}

// tick runs one probe cycle. The deferred recover is the tick's reliability
// boundary: whatever goes wrong inside a single tick is logged and swallowed
// so the schedule keeps firing.
func (m *Monitor) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorf("DB availability check failed unexpectedly: %v\n%s", r, debug.Stack())
		}
	}()

	metrics.HeartbeatTicks.Inc()

	wasReadOnly := m.state.IsReadOnly()
	canWrite := m.probe(ctx)

	switch {
	case wasReadOnly && canWrite:
		m.logger.Warn("Database is writable again, switching node back to read-write mode")
		m.transition(false, "database writes restored")
	case !wasReadOnly && !canWrite:
		m.logger.Warn("Database no longer accepts writes, switching node to read-only mode")
		m.transition(true, "database write probe failed")
	case wasReadOnly:
		m.logger.Info("Database still not writable, node stays in read-only mode")
	default:
		m.logger.Debug("Database writable, node stays in read-write mode")
	}
}

func (m *Monitor) transition(readOnly bool, reason string) {
	m.state.SetReadOnly(readOnly)
	if readOnly {
		metrics.NodeReadOnly.Set(1)
		metrics.ModeTransitions.WithLabelValues("read_only").Inc()
	} else {
		metrics.NodeReadOnly.Set(0)
		metrics.ModeTransitions.WithLabelValues("read_write").Inc()
	}
	if m.notifier != nil {
		m.notifier.SetReadOnly(readOnly)
	}
	if m.Publish != nil {
		m.Publish(events.NewModeChangeEvent(readOnly, reason))
	}
}

// probe saves a uniquely named sentinel setting, flushes, and deletes it
// again. Only the save and flush outcomes classify write availability: a
// successful save+flush already proves the database writable, so a failed
// cleanup is logged but does not flip the verdict.
func (m *Monitor) probe(ctx context.Context) bool {
	name := sentinelPrefix + uuid.NewString()

	sentinel, err := m.store.Save(ctx, name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		m.logger.Debugf("Heartbeat probe save failed: %v", err)
		metrics.HeartbeatProbeFailures.Inc()
		return false
	}

	flushErr := m.store.Flush(ctx)

	// The save reached the store, so always try to remove the sentinel.
	if err := m.store.Delete(ctx, sentinel); err != nil {
		m.logger.Debugf("Failed to clean up heartbeat sentinel %q: %v", sentinel.Name, err)
	}

	if flushErr != nil {
		m.logger.Debugf("Heartbeat probe flush failed: %v", flushErr)
		metrics.HeartbeatProbeFailures.Inc()
		return false
	}
	return true
}
