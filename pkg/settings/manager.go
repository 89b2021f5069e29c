package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Well-known setting names.
const (
	KeySiteID    = "system/site/siteId"
	KeySiteName  = "system/site/name"
	KeyProxyUse  = "system/proxy/use"
	KeyProxyHost = "system/proxy/host"
	KeyProxyPort = "system/proxy/port"
)

const DefaultSiteName = "My metadata catalogue"

// Manager provides typed access to settings and seeds the defaults a fresh
// node needs on first start.
type Manager struct {
	store  Store
	logger *logrus.Logger
}

func NewManager(store Store, logger *logrus.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Init seeds the default settings when the store is empty. Subsequent starts
// leave existing values untouched.
func (m *Manager) Init(ctx context.Context) error {
	count, err := m.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect settings store: %w", err)
	}
	if count > 0 {
		m.logger.Debugf("Settings store already initialized (%d settings)", count)
		return nil
	}

	siteID := uuid.NewString()
	defaults := []Setting{
		{Name: KeySiteID, Value: siteID},
		{Name: KeySiteName, Value: DefaultSiteName},
		{Name: KeyProxyUse, Value: "false"},
		{Name: KeyProxyHost, Value: ""},
		{Name: KeyProxyPort, Value: ""},
	}
	for _, setting := range defaults {
		if _, err := m.store.Save(ctx, setting.Name, setting.Value); err != nil {
			return fmt.Errorf("failed to seed setting %q: %w", setting.Name, err)
		}
	}

	m.logger.WithField("siteId", siteID).Info("Seeded settings store with defaults")
	return nil
}

// Value returns the raw value of a setting, or ErrNotFound.
func (m *Manager) Value(ctx context.Context, name string) (string, error) {
	setting, err := m.store.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// ValueAsBool interprets a setting as a boolean. A missing setting reads as
// false.
func (m *Manager) ValueAsBool(ctx context.Context, name string) (bool, error) {
	raw, err := m.Value(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("setting %q is not a boolean: %w", name, err)
	}
	return value, nil
}

func (m *Manager) SetValue(ctx context.Context, name string, value string) error {
	_, err := m.store.Save(ctx, name, value)
	return err
}

func (m *Manager) SiteID(ctx context.Context) (string, error) {
	return m.Value(ctx, KeySiteID)
}

func (m *Manager) SiteName(ctx context.Context) (string, error) {
	return m.Value(ctx, KeySiteName)
}

// ProxyConfig builds the outbound proxy URL from the proxy settings. It
// returns nil when the proxy is disabled.
func (m *Manager) ProxyConfig(ctx context.Context) (*url.URL, error) {
	use, err := m.ValueAsBool(ctx, KeyProxyUse)
	if err != nil {
		return nil, err
	}
	if !use {
		return nil, nil
	}

	host, err := m.Value(ctx, KeyProxyHost)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if host == "" {
		return nil, fmt.Errorf("proxy is enabled but %s is empty", KeyProxyHost)
	}

	port, err := m.Value(ctx, KeyProxyPort)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	raw := "http://" + host
	if port != "" {
		raw += ":" + port
	}
	proxyURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy configuration %q: %w", raw, err)
	}
	return proxyURL, nil
}
