package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const EnsureSchemaQuery = `
/*catalogd*/
CREATE TABLE IF NOT EXISTS settings (
	name  text PRIMARY KEY,
	value text NOT NULL
);
`

const SaveSettingQuery = `
/*catalogd*/
INSERT INTO settings (name, value) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value
RETURNING name, value;
`

const GetSettingQuery = `
/*catalogd*/
SELECT name, value FROM settings WHERE name = $1;
`

const DeleteSettingQuery = `
/*catalogd*/
DELETE FROM settings WHERE name = $1;
`

const CountSettingsQuery = `
/*catalogd*/
SELECT count(*) FROM settings;
`

// PGStore is the PostgreSQL-backed settings store.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewPGStore(pool *pgxpool.Pool, logger *logrus.Logger) *PGStore {
	return &PGStore{pool: pool, logger: logger}
}

// EnsureSchema creates the settings table when it does not exist yet.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, EnsureSchemaQuery)
	if err != nil {
		return fmt.Errorf("failed to ensure settings schema: %w", err)
	}
	s.logger.Debug("Settings schema is in place")
	return nil
}

func (s *PGStore) Save(ctx context.Context, name string, value string) (Setting, error) {
	var saved Setting
	err := s.pool.QueryRow(ctx, SaveSettingQuery, name, value).Scan(&saved.Name, &saved.Value)
	if err != nil {
		return Setting{}, fmt.Errorf("failed to save setting %q: %w", name, err)
	}
	return saved, nil
}

// Flush issues a connection round trip. pgx executes statements eagerly, so
// a successful ping here means the preceding writes reached the server.
func (s *PGStore) Flush(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("settings flush failed: %w", err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, setting Setting) error {
	tag, err := s.pool.Exec(ctx, DeleteSettingQuery, setting.Name)
	if err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", setting.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, name string) (Setting, error) {
	var setting Setting
	err := s.pool.QueryRow(ctx, GetSettingQuery, name).Scan(&setting.Name, &setting.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return Setting{}, ErrNotFound
	}
	if err != nil {
		return Setting{}, fmt.Errorf("failed to get setting %q: %w", name, err)
	}
	return setting, nil
}

func (s *PGStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, CountSettingsQuery).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count settings: %w", err)
	}
	return count, nil
}

func (s *PGStore) Close() {
	s.pool.Close()
}
