package heartbeat

import (
	"fmt"
	"time"

	"github.com/geocat/catalogd/pkg/internal/utils"
	"github.com/spf13/viper"
)

const (
	DEFAULT_CONFIG_KEY = "heartbeat"

	DefaultInitialDelaySeconds = 5
	DefaultFixedDelaySeconds   = 60
)

// Config drives the DB availability monitor. The monitor is off by default;
// a node that never probes simply stays in its configured startup mode.
type Config struct {
	Enabled bool `mapstructure:"enabled"`
	// InitialDelaySeconds is the delay before the first probe.
	InitialDelaySeconds int `mapstructure:"initial_delay_seconds" validate:"gte=0"`
	// FixedDelaySeconds is the delay between the end of one probe and the
	// start of the next (fixed-delay, not fixed-rate).
	FixedDelaySeconds int `mapstructure:"fixed_delay_seconds" validate:"gt=0"`
}

func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySeconds) * time.Second
}

func (c Config) FixedDelay() time.Duration {
	return time.Duration(c.FixedDelaySeconds) * time.Second
}

func ConfigFromViper(key *string) (Config, error) {
	var keyValue string
	if key == nil {
		keyValue = DEFAULT_CONFIG_KEY
	} else {
		keyValue = *key
	}

	hbViper := viper.Sub(keyValue)
	if hbViper == nil {
		hbViper = viper.New()
	}

	hbViper.BindEnv("enabled", "CATD_HEARTBEAT_ENABLED")
	hbViper.BindEnv("initial_delay_seconds", "CATD_HEARTBEAT_INITIAL_DELAY_SECONDS")
	hbViper.BindEnv("fixed_delay_seconds", "CATD_HEARTBEAT_FIXED_DELAY_SECONDS")
	hbViper.SetDefault("initial_delay_seconds", DefaultInitialDelaySeconds)
	hbViper.SetDefault("fixed_delay_seconds", DefaultFixedDelaySeconds)

	var hbConfig Config
	err := hbViper.Unmarshal(&hbConfig)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %v", err)
	}

	err = utils.ValidateStruct(&hbConfig)
	if err != nil {
		return Config{}, err
	}
	return hbConfig, nil
}
