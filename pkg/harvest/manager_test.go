package harvest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocat/catalogd/pkg/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harvest-sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSources(t *testing.T) {
	path := writeSourcesFile(t, `
sources:
  - name: geodata
    url: https://geodata.example.org/oai
    every: 1h
  - name: regional
    url: https://regional.example.org/csw
    every: 30m
`)

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "geodata", sources[0].Name)
	assert.Equal(t, time.Hour, sources[0].Every)
	assert.Equal(t, 30*time.Minute, sources[1].Every)
}

func TestLoadSourcesRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing name",
			yaml: "sources:\n  - url: https://example.org\n    every: 1h\n",
		},
		{
			name: "missing url",
			yaml: "sources:\n  - name: geodata\n    every: 1h\n",
		},
		{
			name: "missing interval",
			yaml: "sources:\n  - name: geodata\n    url: https://example.org\n",
		},
		{
			name: "unparseable interval",
			yaml: "sources:\n  - name: geodata\n    url: https://example.org\n    every: hourly\n",
		},
		{
			name: "negative interval",
			yaml: "sources:\n  - name: geodata\n    url: https://example.org\n    every: -5m\n",
		},
		{
			name: "duplicate names",
			yaml: "sources:\n  - name: geodata\n    url: https://a.example.org\n    every: 1h\n  - name: geodata\n    url: https://b.example.org\n    every: 1h\n",
		},
		{
			name: "not yaml",
			yaml: "{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSourcesFile(t, tt.yaml)
			_, err := LoadSources(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func newTestManager(t *testing.T, sources []Source) *Manager {
	t.Helper()
	manager, err := NewManager(Config{TimeoutSeconds: 5, RetryMax: 0}, testLogger())
	require.NoError(t, err)
	manager.sources = sources
	return manager
}

func TestHarvestFetchesSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<records>payload</records>"))
	}))
	defer server.Close()

	manager := newTestManager(t, nil)

	var published []events.Event
	manager.Publish = func(event events.Event) {
		published = append(published, event)
	}

	source := Source{Name: "geodata", URL: server.URL, Every: time.Hour}
	require.NoError(t, manager.harvest(context.Background(), source))

	require.Len(t, published, 1)
	harvested, ok := published[0].(events.HarvestEvent)
	require.True(t, ok)
	assert.Equal(t, "geodata", harvested.Source)
	assert.Equal(t, int64(len("<records>payload</records>")), harvested.Bytes)
	assert.Empty(t, harvested.Err)
}

func TestHarvestReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	manager := newTestManager(t, nil)

	var published []events.Event
	manager.Publish = func(event events.Event) {
		published = append(published, event)
	}

	source := Source{Name: "geodata", URL: server.URL, Every: time.Hour}
	assert.Error(t, manager.harvest(context.Background(), source))

	require.Len(t, published, 1)
	harvested := published[0].(events.HarvestEvent)
	assert.NotEmpty(t, harvested.Err)
}

func TestHarvestSkippedWhileReadOnly(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	manager := newTestManager(t, nil)
	manager.SetReadOnly(true)

	source := Source{Name: "geodata", URL: server.URL, Every: time.Hour}
	require.NoError(t, manager.harvest(context.Background(), source))
	assert.Zero(t, requests.Load(), "read-only node must not fetch")

	manager.SetReadOnly(false)
	require.NoError(t, manager.harvest(context.Background(), source))
	assert.Equal(t, int64(1), requests.Load())
}

func TestManagerSchedulesSources(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	manager := newTestManager(t, []Source{
		{Name: "fast", URL: server.URL, Every: 20 * time.Millisecond},
	})

	manager.Start(context.Background())
	defer manager.Shutdown()

	assert.Eventually(t, func() bool {
		return requests.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestShutdownIsIdempotent(t *testing.T) {
	manager := newTestManager(t, nil)
	manager.Start(context.Background())

	assert.NotPanics(t, func() {
		manager.Shutdown()
		manager.Shutdown()
	})
}

func TestShutdownWithoutStart(t *testing.T) {
	manager := newTestManager(t, nil)

	assert.NotPanics(t, func() {
		manager.Shutdown()
	})
}
