// Package migrations exposes the embedded service_instances schema per SQL
// dialect and hands each one to a caller supplied migration registrar.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	services "github.com/goliatone/go-service-adapters"
	"github.com/samber/lo"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	DefaultSourceLabel = "go-service-adapters"

	rootDir = "data/sql/migrations"
)

// Source is the migration directory for one dialect. Postgres files live at
// the root, each other dialect in a subdirectory named after it.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel string
	Dialects    []string
	Sources     []Source
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if label = strings.TrimSpace(label); label != "" {
			r.SourceLabel = label
		}
	}
}

// WithValidationTargets limits registration to the given dialects.
func WithValidationTargets(dialects ...string) Option {
	return func(r *Registration) {
		normalized := normalizeDialects(dialects)
		if len(normalized) > 0 {
			r.Dialects = normalized
		}
	}
}

// WithSources replaces the embedded schema, mostly for tests.
func WithSources(sources ...Source) Option {
	return func(r *Registration) {
		valid := lo.Filter(sources, func(source Source, _ int) bool {
			return source.FS != nil && strings.TrimSpace(source.Dialect) != ""
		})
		if len(valid) == 0 {
			return
		}
		r.Sources = lo.Map(valid, func(source Source, _ int) Source {
			source.Dialect = strings.ToLower(strings.TrimSpace(source.Dialect))
			return source
		})
	}
}

// DialectForDriver maps a database/sql driver name to its migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("migrations: no dialect for driver %q", driver)
	}
}

// Sources resolves the per-dialect directories below root, or below the
// embedded schema when root is nil. Every directory must hold at least one
// up migration.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = services.GetMigrationsFS()
	}
	base, err := fs.Sub(root, rootDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: open %s: %w", rootDir, err)
	}
	sqlite, err := fs.Sub(base, DialectSQLite)
	if err != nil {
		return nil, fmt.Errorf("migrations: open %s/%s: %w", rootDir, DialectSQLite, err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: rootDir, FS: base},
		{Dialect: DialectSQLite, Path: rootDir + "/" + DialectSQLite, FS: sqlite},
	}
	for _, source := range sources {
		ups, err := fs.Glob(source.FS, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: list %s: %w", source.Path, err)
		}
		if len(ups) == 0 {
			return nil, fmt.Errorf("migrations: %s has no up migrations", source.Path)
		}
	}
	return sources, nil
}

// Register calls registerFn once per selected dialect, in source order.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel: DefaultSourceLabel,
		Dialects:    []string{DialectPostgres, DialectSQLite},
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if len(reg.Sources) == 0 {
		sources, err := Sources(nil)
		if err != nil {
			return reg, err
		}
		reg.Sources = sources
	}

	for _, source := range reg.Sources {
		if !lo.Contains(reg.Dialects, source.Dialect) {
			continue
		}
		if err := registerFn(ctx, source.Dialect, reg.SourceLabel, source.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s from %s: %w", source.Dialect, source.Path, err)
		}
	}
	return reg, nil
}

func normalizeDialects(values []string) []string {
	normalized := lo.FilterMap(values, func(value string, _ int) (string, bool) {
		value = strings.ToLower(strings.TrimSpace(value))
		return value, value != ""
	})
	return lo.Uniq(normalized)
}
