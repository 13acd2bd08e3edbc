package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ResolveCityDSN returns dsn pointed at the most recent successful GTFS
// import for city. The import registry lives in the cluster's "postgres"
// database. An empty city returns dsn unchanged.
func ResolveCityDSN(ctx context.Context, dsn, city string) (string, string, error) {
	if strings.TrimSpace(city) == "" {
		return dsn, "", nil
	}
	rootDSN, err := WithDBName(dsn, "postgres")
	if err != nil {
		return "", "", fmt.Errorf("invalid base DSN: %w", err)
	}
	meta, err := Open(rootDSN)
	if err != nil {
		return "", "", fmt.Errorf("open meta db: %w", err)
	}
	defer meta.Close()
	if err := Ping(ctx, meta); err != nil {
		return "", "", fmt.Errorf("ping meta db: %w", err)
	}

	name, err := LatestImportDBName(ctx, meta, city)
	if err != nil {
		return "", "", err
	}
	cityDSN, err := WithDBName(dsn, name)
	if err != nil {
		return "", "", err
	}
	return cityDSN, name, nil
}

// LatestImportDBName returns the db_name with the most recent imported_at
// from public.latest_successful_imports where db_name ILIKE '%city%'.
func LatestImportDBName(ctx context.Context, meta *sql.DB, city string) (string, error) {
	q := `
SELECT db_name
FROM public.latest_successful_imports
WHERE db_name ILIKE '%' || $1 || '%'
ORDER BY imported_at DESC
LIMIT 1`
	var name sql.NullString
	err := meta.QueryRowContext(ctx, q, strings.TrimSpace(city)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no database found for city like %q", city)
	}
	if err != nil {
		return "", fmt.Errorf("resolve latest import: %w", err)
	}
	if !name.Valid || name.String == "" {
		return "", fmt.Errorf("empty db_name for city like %q", city)
	}
	return name.String, nil
}

// WithDBName returns dsn with its database path replaced. A DSN without a
// scheme is treated as postgres://.
func WithDBName(dsn, database string) (string, error) {
	if dsn == "" {
		return "", errors.New("empty DSN")
	}
	if !strings.Contains(dsn, "://") {
		dsn = "postgres://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported DSN scheme %q", u.Scheme)
	}
	u.Path = "/" + strings.TrimPrefix(database, "/")
	return u.String(), nil
}
