package node

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geocat/catalogd/pkg/settings"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func configureNode(t *testing.T, yaml string) {
	t.Helper()
	viper.Reset()
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(bytes.NewBufferString(yaml)))
	t.Cleanup(viper.Reset)
}

func baseConfig(t *testing.T) string {
	return fmt.Sprintf(`
data_dir: %s
web:
  listen_address: 127.0.0.1:0
`, filepath.Join(t.TempDir(), "data"))
}

func TestNodeLifecycle(t *testing.T) {
	configureNode(t, baseConfig(t))

	store := settings.NewMemStore()
	node, err := New(context.Background(), store, quietLogger())
	require.NoError(t, err)

	require.NoError(t, node.Start(context.Background()))
	assert.False(t, node.State().IsReadOnly())

	assert.NotPanics(t, func() {
		node.Stop()
		node.Stop()
	})
}

func TestNodeSeedsSettingsAndLogo(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	configureNode(t, fmt.Sprintf(`
data_dir: %s
web:
  listen_address: 127.0.0.1:0
`, dataDir))

	store := settings.NewMemStore()
	node, err := New(context.Background(), store, quietLogger())
	require.NoError(t, err)
	defer node.Stop()

	siteID, err := node.settings.SiteID(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, siteID)
	assert.FileExists(t, filepath.Join(dataDir, "logos", siteID+".png"))
}

func TestNodeStartsReadOnlyWhenConfigured(t *testing.T) {
	configureNode(t, baseConfig(t)+"readonly: true\n")

	node, err := New(context.Background(), settings.NewMemStore(), quietLogger())
	require.NoError(t, err)
	defer node.Stop()

	assert.True(t, node.State().IsReadOnly())
}

func TestNodeFlipsReadOnlyWhenProbesFail(t *testing.T) {
	configureNode(t, baseConfig(t)+`
heartbeat:
  enabled: true
  initial_delay_seconds: 0
  fixed_delay_seconds: 1
`)

	store := settings.NewMemStore()
	node, err := New(context.Background(), store, quietLogger())
	require.NoError(t, err)

	// Fail only the monitor's sentinel writes so regular settings still
	// save.
	store.OnSave = func(name string) error {
		if strings.HasPrefix(name, "system/monitor/") {
			return fmt.Errorf("connection refused")
		}
		return nil
	}

	require.NoError(t, node.Start(context.Background()))
	defer node.Stop()

	assert.Eventually(t, func() bool {
		return node.State().IsReadOnly()
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNodeWritesAuditLog(t *testing.T) {
	auditLog := filepath.Join(t.TempDir(), "audit.jsonl")
	configureNode(t, baseConfig(t)+fmt.Sprintf("audit_log: %s\n", auditLog))

	node, err := New(context.Background(), settings.NewMemStore(), quietLogger())
	require.NoError(t, err)

	require.NoError(t, node.Start(context.Background()))
	node.Stop()

	data, err := os.ReadFile(auditLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"startup"`)
}

func TestNodeRejectsInvalidHeartbeatConfig(t *testing.T) {
	configureNode(t, baseConfig(t)+`
heartbeat:
  enabled: true
  fixed_delay_seconds: 0
`)

	_, err := New(context.Background(), settings.NewMemStore(), quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heartbeat")
}
