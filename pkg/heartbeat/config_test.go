package heartbeat

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfigYAML(t *testing.T, yaml string) {
	t.Helper()
	viper.Reset()
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(bytes.NewBufferString(yaml)))
	t.Cleanup(viper.Reset)
}

func TestConfigDefaults(t *testing.T) {
	loadConfigYAML(t, `
heartbeat:
  enabled: true
`)

	config, err := ConfigFromViper(nil)
	require.NoError(t, err)
	assert.True(t, config.Enabled)
	assert.Equal(t, DefaultInitialDelaySeconds, config.InitialDelaySeconds)
	assert.Equal(t, DefaultFixedDelaySeconds, config.FixedDelaySeconds)
	assert.Equal(t, 5*time.Second, config.InitialDelay())
	assert.Equal(t, 60*time.Second, config.FixedDelay())
}

func TestConfigDisabledByDefault(t *testing.T) {
	loadConfigYAML(t, ``)

	config, err := ConfigFromViper(nil)
	require.NoError(t, err)
	assert.False(t, config.Enabled)
}

func TestConfigExplicitDelays(t *testing.T) {
	loadConfigYAML(t, `
heartbeat:
  enabled: true
  initial_delay_seconds: 0
  fixed_delay_seconds: 10
`)

	config, err := ConfigFromViper(nil)
	require.NoError(t, err)
	assert.Zero(t, config.InitialDelaySeconds)
	assert.Equal(t, 10, config.FixedDelaySeconds)
}

func TestConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "zero fixed delay",
			yaml: `
heartbeat:
  enabled: true
  fixed_delay_seconds: 0
`,
		},
		{
			name: "negative initial delay",
			yaml: `
heartbeat:
  enabled: true
  initial_delay_seconds: -1
`,
		},
		{
			name: "non-numeric delay",
			yaml: `
heartbeat:
  enabled: true
  fixed_delay_seconds: soon
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loadConfigYAML(t, tt.yaml)

			_, err := ConfigFromViper(nil)
			assert.Error(t, err)
		})
	}
}
