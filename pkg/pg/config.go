package pg

import (
	"fmt"

	"github.com/geocat/catalogd/pkg/internal/utils"
	"github.com/spf13/viper"
)

const (
	DEFAULT_CONFIG_KEY = "postgresql"
)

type Config struct {
	ConnectionURL string `mapstructure:"connection_url" validate:"required"`
	// StartupWaitSeconds bounds how long the node polls for the database to
	// come up at boot. Zero means a single attempt.
	StartupWaitSeconds int `mapstructure:"startup_wait_seconds" validate:"gte=0"`
}

func ConfigFromViper(key *string) (Config, error) {
	var keyValue string
	if key == nil {
		keyValue = DEFAULT_CONFIG_KEY
	} else {
		keyValue = *key
	}

	pgViper := viper.Sub(keyValue)
	if pgViper == nil {
		pgViper = viper.New()
	}

	pgViper.BindEnv("connection_url", "CATD_POSTGRESQL_CONNECTION_URL")
	pgViper.BindEnv("startup_wait_seconds", "CATD_POSTGRESQL_STARTUP_WAIT_SECONDS")

	var pgConfig Config
	err := pgViper.Unmarshal(&pgConfig)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %v", err)
	}

	err = utils.ValidateStruct(&pgConfig)
	if err != nil {
		return Config{}, err
	}
	return pgConfig, nil
}
