package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/geocat/catalogd/pkg/harvest"
	"github.com/geocat/catalogd/pkg/heartbeat"
	"github.com/geocat/catalogd/pkg/pg"
	"github.com/geocat/catalogd/pkg/settings"
	"github.com/geocat/catalogd/pkg/web"
	"github.com/sirupsen/logrus"
)

// CheckStartupRequirements verifies all mandatory configuration and connectivity requirements.
// Returns nil if all checks pass, or an error describing the first failure.
func CheckStartupRequirements(ctx context.Context, logger *logrus.Logger) error {
	// Every config section must parse and validate before anything starts.
	pgConfig, err := pg.ConfigFromViper(nil)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection URL not set or invalid: %w", err)
	}
	if _, err := heartbeat.ConfigFromViper(nil); err != nil {
		return fmt.Errorf("heartbeat configuration invalid: %w", err)
	}
	if _, err := web.ConfigFromViper(nil); err != nil {
		return fmt.Errorf("web configuration invalid: %w", err)
	}
	harvestConfig, err := harvest.ConfigFromViper(nil)
	if err != nil {
		return fmt.Errorf("harvest configuration invalid: %w", err)
	}
	if harvestConfig.SourcesFile != "" {
		if _, err := harvest.LoadSources(harvestConfig.SourcesFile); err != nil {
			return fmt.Errorf("harvest sources invalid: %w", err)
		}
	}

	// Try to connect to the database
	pool, err := pg.NewPool(ctx, pgConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("unable to ping PostgreSQL database: %w", err)
	}

	if pgVersion, err := pg.PGVersion(pool); err == nil {
		logger.Infof("PostgreSQL version: %s", pgVersion)
	}

	store := settings.NewPGStore(pool, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure settings schema: %w", err)
	}

	return nil
}
