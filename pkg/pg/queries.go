package pg

import (
	"context"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGVersion returns the version of the PostgreSQL instance
const PGVersionQuery = `
/*catalogd*/
SELECT version();
`

// Example: 16.4
func PGVersion(pgPool *pgxpool.Pool) (string, error) {
	var pgVersion string
	versionRegex := regexp.MustCompile(`PostgreSQL (\d+\.\d+)`)
	err := pgPool.QueryRow(context.Background(), PGVersionQuery).Scan(&pgVersion)
	if err != nil {
		return "", err
	}
	matches := versionRegex.FindStringSubmatch(pgVersion)

	return matches[1], nil
}

const Select1Query = `
/*catalogd*/
SELECT 1;
`

func Select1(pgPool *pgxpool.Pool) error {
	_, err := pgPool.Exec(context.Background(), Select1Query)
	if err != nil {
		return err
	}
	return nil
}
