package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// OpenDB opens dsn with the matching driver and bun dialect. Accepted
// drivers are postgres (lib/pq) and sqlite3 (mattn/go-sqlite3).
func OpenDB(driver string, dsn string) (*bun.DB, error) {
	sqlDriver, dialect, err := resolveDriver(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}
	sqlDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", sqlDriver, err)
	}
	if sqlDriver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	return bun.NewDB(sqlDB, dialect), nil
}

// Dialect returns the bun dialect for driver.
func Dialect(driver string) (schema.Dialect, error) {
	_, dialect, err := resolveDriver(driver)
	return dialect, err
}

func resolveDriver(driver string) (string, schema.Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg":
		return DriverPostgres, pgdialect.New(), nil
	case "sqlite", "sqlite3":
		return DriverSQLite, sqlitedialect.New(), nil
	default:
		return "", nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}
