package harvest

import (
	"fmt"
	"time"

	"github.com/geocat/catalogd/pkg/internal/utils"
	"github.com/spf13/viper"
)

const (
	DEFAULT_CONFIG_KEY = "harvest"

	DefaultTimeoutSeconds = 30
	DefaultRetryMax       = 3
)

type Config struct {
	// SourcesFile points at the YAML file listing the harvest sources.
	// Empty means no sources are harvested.
	SourcesFile string `mapstructure:"sources_file"`
	// TimeoutSeconds bounds a single fetch.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"gt=0"`
	// RetryMax is the number of HTTP retries per fetch.
	RetryMax int `mapstructure:"retry_max" validate:"gte=0"`
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func ConfigFromViper(key *string) (Config, error) {
	var keyValue string
	if key == nil {
		keyValue = DEFAULT_CONFIG_KEY
	} else {
		keyValue = *key
	}

	harvestViper := viper.Sub(keyValue)
	if harvestViper == nil {
		harvestViper = viper.New()
	}

	harvestViper.BindEnv("sources_file", "CATD_HARVEST_SOURCES_FILE")
	harvestViper.BindEnv("timeout_seconds", "CATD_HARVEST_TIMEOUT_SECONDS")
	harvestViper.BindEnv("retry_max", "CATD_HARVEST_RETRY_MAX")
	harvestViper.SetDefault("timeout_seconds", DefaultTimeoutSeconds)
	harvestViper.SetDefault("retry_max", DefaultRetryMax)

	var harvestConfig Config
	err := harvestViper.Unmarshal(&harvestConfig)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %v", err)
	}

	err = utils.ValidateStruct(&harvestConfig)
	if err != nil {
		return Config{}, err
	}
	return harvestConfig, nil
}
