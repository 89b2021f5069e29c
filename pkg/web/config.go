package web

import (
	"fmt"
	"time"

	"github.com/geocat/catalogd/pkg/internal/utils"
	"github.com/spf13/viper"
)

const (
	DEFAULT_CONFIG_KEY = "web"

	DefaultListenAddress         = ":8080"
	DefaultSessionCookie         = "JSESSIONID"
	DefaultSessionTimeoutSeconds = 1800
)

type Config struct {
	ListenAddress string `mapstructure:"listen_address" validate:"required"`
	// BasePath is prepended to every route and used as the cookie path.
	BasePath string `mapstructure:"base_path"`
	// SessionCookie is the cookie whose presence marks an authenticated
	// session worth tracking.
	SessionCookie string `mapstructure:"session_cookie" validate:"required"`
	// SessionTimeoutSeconds is how long an idle session stays valid; it
	// feeds the sessionExpiry cookie the UI counts down against.
	SessionTimeoutSeconds int  `mapstructure:"session_timeout_seconds" validate:"gt=0"`
	SecureCookies         bool `mapstructure:"secure_cookies"`
}

func (c Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSeconds) * time.Second
}

// CookiePath returns the path scope for the session tracking cookies.
func (c Config) CookiePath() string {
	if c.BasePath == "" {
		return "/"
	}
	return c.BasePath
}

func ConfigFromViper(key *string) (Config, error) {
	var keyValue string
	if key == nil {
		keyValue = DEFAULT_CONFIG_KEY
	} else {
		keyValue = *key
	}

	webViper := viper.Sub(keyValue)
	if webViper == nil {
		webViper = viper.New()
	}

	webViper.BindEnv("listen_address", "CATD_WEB_LISTEN_ADDRESS")
	webViper.BindEnv("base_path", "CATD_WEB_BASE_PATH")
	webViper.BindEnv("session_cookie", "CATD_WEB_SESSION_COOKIE")
	webViper.BindEnv("session_timeout_seconds", "CATD_WEB_SESSION_TIMEOUT_SECONDS")
	webViper.BindEnv("secure_cookies", "CATD_WEB_SECURE_COOKIES")
	webViper.SetDefault("listen_address", DefaultListenAddress)
	webViper.SetDefault("session_cookie", DefaultSessionCookie)
	webViper.SetDefault("session_timeout_seconds", DefaultSessionTimeoutSeconds)

	var webConfig Config
	err := webViper.Unmarshal(&webConfig)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %v", err)
	}

	err = utils.ValidateStruct(&webConfig)
	if err != nil {
		return Config{}, err
	}
	return webConfig, nil
}
