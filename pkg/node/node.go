// Package node ties the catalog node's components into one lifecycle:
// settings, data directory, heartbeat monitor, harvest manager, web server
// and audit sinks start together and stop in reverse order.
package node

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"sync"
	"time"

	"github.com/geocat/catalogd/pkg/appstate"
	"github.com/geocat/catalogd/pkg/datadir"
	"github.com/geocat/catalogd/pkg/events"
	"github.com/geocat/catalogd/pkg/harvest"
	"github.com/geocat/catalogd/pkg/heartbeat"
	"github.com/geocat/catalogd/pkg/metrics"
	"github.com/geocat/catalogd/pkg/settings"
	"github.com/geocat/catalogd/pkg/sink"
	"github.com/geocat/catalogd/pkg/version"
	"github.com/geocat/catalogd/pkg/web"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const eventBufferSize = 64

// NewLogger builds the node-wide logger. Level comes from the viper bool
// "debug".
func NewLogger() *log.Logger {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := path.Base(f.File)
			return "", fmt.Sprintf(" %s:%d", filename, f.Line)
		},
	})
	logger.SetReportCaller(true)

	if viper.GetBool("debug") {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	return logger
}

// Node is the assembled catalog node.
type Node struct {
	logger   *log.Logger
	state    *appstate.State
	store    settings.Store
	settings *settings.Manager
	dataDir  datadir.Dir
	harvest  *harvest.Manager
	monitor  *heartbeat.Monitor
	web      *web.Server
	sinks    []sink.Sink

	eventCh   chan events.Event
	eventWG   sync.WaitGroup
	publishMu sync.RWMutex
	closed    bool
	stopOnce  sync.Once
}

// New assembles a node around the given settings store. Configuration comes
// from viper; any invalid section aborts construction.
func New(ctx context.Context, store settings.Store, logger *log.Logger) (*Node, error) {
	viper.SetDefault("data_dir", "./catalogd-data")

	n := &Node{
		logger:  logger,
		store:   store,
		state:   appstate.New(viper.GetBool("readonly")),
		eventCh: make(chan events.Event, eventBufferSize),
	}

	dataDir, err := datadir.Resolve(viper.GetString("data_dir"))
	if err != nil {
		return nil, err
	}
	n.dataDir = dataDir

	n.settings = settings.NewManager(store, logger)
	if err := n.settings.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}

	siteID, err := n.settings.SiteID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve site id: %w", err)
	}
	if err := dataDir.EnsureSiteLogo(siteID); err != nil {
		return nil, err
	}

	if auditLog := viper.GetString("audit_log"); auditLog != "" {
		fileSink, err := sink.NewFileSink(auditLog, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		n.sinks = append(n.sinks, fileSink)
	}

	harvestConfig, err := harvest.ConfigFromViper(nil)
	if err != nil {
		return nil, fmt.Errorf("invalid harvest configuration: %w", err)
	}
	n.harvest, err = harvest.NewManager(harvestConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up harvest manager: %w", err)
	}
	n.harvest.Publish = n.publish

	proxyURL, err := n.settings.ProxyConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy settings: %w", err)
	}
	n.harvest.SetProxy(proxyURL)

	heartbeatConfig, err := heartbeat.ConfigFromViper(nil)
	if err != nil {
		return nil, fmt.Errorf("invalid heartbeat configuration: %w", err)
	}
	n.monitor = heartbeat.New(heartbeatConfig, n.state, store, n.harvest, logger)
	n.monitor.Publish = n.publish

	webConfig, err := web.ConfigFromViper(nil)
	if err != nil {
		return nil, fmt.Errorf("invalid web configuration: %w", err)
	}
	n.web = web.NewServer(webConfig, n.state, n.settings, logger)

	return n, nil
}

// State exposes the node's read-only flag.
func (n *Node) State() *appstate.State {
	return n.state
}

// Start brings every component up and returns once the node is serving.
func (n *Node) Start(ctx context.Context) error {
	n.logger.Info(version.GetVersion())
	n.logSystemReport()

	if n.state.IsReadOnly() {
		metrics.NodeReadOnly.Set(1)
	} else {
		metrics.NodeReadOnly.Set(0)
	}

	n.eventWG.Add(1)
	go n.processEvents()

	if err := n.monitor.Start(ctx); err != nil {
		return err
	}
	n.harvest.Start(ctx)
	n.web.Start()

	// Warm the settings cache in the background so the first requests do
	// not pay the lookup cost.
	go n.warmCaches(ctx)

	siteID, err := n.settings.SiteID(ctx)
	if err != nil {
		siteID = "unknown"
	}
	n.publish(events.NewStartupEvent(version.GetVersionOnly(), siteID))
	if n.state.IsReadOnly() {
		n.logger.Warn("Node starting in read-only mode")
	}

	n.logger.Info("Catalog node started")
	return nil
}

// Stop shuts the node down in reverse start order. It is idempotent.
func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		n.logger.Info("Stopping catalog node")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.web.Shutdown(shutdownCtx); err != nil {
			n.logger.Errorf("Web server shutdown failed: %v", err)
		}

		n.monitor.Stop()
		n.harvest.Shutdown()

		// All publishers are stopped, drain the event loop.
		n.publishMu.Lock()
		n.closed = true
		close(n.eventCh)
		n.publishMu.Unlock()
		n.eventWG.Wait()

		for _, s := range n.sinks {
			if err := s.Close(); err != nil {
				n.logger.Errorf("Failed to close %s sink: %v", s.Name(), err)
			}
		}
		n.store.Close()

		n.logger.Info("Catalog node stopped")
	})
}

// publish fans an event into the sink loop. Events are best-effort: when the
// buffer is full or the node is stopping the event is dropped with a log
// line rather than blocking the publisher.
func (n *Node) publish(event events.Event) {
	n.publishMu.RLock()
	defer n.publishMu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.eventCh <- event:
	default:
		n.logger.Warnf("Event buffer full, dropping %s event", event.Type())
	}
}

func (n *Node) processEvents() {
	defer n.eventWG.Done()
	for event := range n.eventCh {
		for _, s := range n.sinks {
			if err := s.Process(context.Background(), event); err != nil {
				n.logger.Errorf("Sink %s failed to process %s event: %v", s.Name(), event.Type(), err)
			}
		}
	}
}

// warmCaches preloads the settings the request path reads on every call.
func (n *Node) warmCaches(ctx context.Context) {
	for _, name := range []string{settings.KeySiteID, settings.KeySiteName} {
		if _, err := n.settings.Value(ctx, name); err != nil {
			n.logger.Debugf("Cache warm-up read of %s failed: %v", name, err)
		}
	}
}

// logSystemReport logs the host the node landed on, the way operators expect
// to see it at the top of the log.
func (n *Node) logSystemReport() {
	if info, err := host.Info(); err == nil {
		n.logger.Infof("Host: %s (%s %s, kernel %s)", info.Hostname, info.Platform, info.PlatformVersion, info.KernelVersion)
	}
	if cores, err := cpu.Counts(true); err == nil {
		n.logger.Infof("CPU cores: %d", cores)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		n.logger.Infof("Memory: %d MB total, %.1f%% used", vm.Total/1024/1024, vm.UsedPercent)
	}
	if usage, err := n.dataDir.DiskUsage(); err == nil {
		n.logger.Infof("Data directory %s: %d MB free of %d MB (%.1f%% used)",
			n.dataDir.Root, usage.Free/1024/1024, usage.Total/1024/1024, usage.UsedPercent)
	}
}
