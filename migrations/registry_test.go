package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	services "github.com/goliatone/go-service-adapters"
	_ "github.com/mattn/go-sqlite3"
)

func TestSources_ReturnsPostgresAndSQLite(t *testing.T) {
	sources, err := Sources(nil)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	dialects := map[string]bool{}
	for _, source := range sources {
		matches, globErr := fs.Glob(source.FS, "*.up.sql")
		if globErr != nil || len(matches) == 0 {
			t.Fatalf("expected %s up migrations, got %v %v", source.Dialect, matches, globErr)
		}
		dialects[source.Dialect] = true
	}
	if len(sources) != 2 || !dialects[DialectPostgres] || !dialects[DialectSQLite] {
		t.Fatalf("expected postgres and sqlite sources, got %#v", sources)
	}
}

func TestSources_RejectsRootWithoutMigrations(t *testing.T) {
	root := fstest.MapFS{
		"data/sql/migrations/sqlite/README": &fstest.MapFile{Data: []byte("empty")},
	}
	if _, err := Sources(root); err == nil {
		t.Fatalf("expected missing up migrations to fail")
	}
}

func TestDialectForDriver(t *testing.T) {
	cases := map[string]string{
		"postgres": DialectPostgres,
		" PG ":     DialectPostgres,
		"sqlite3":  DialectSQLite,
		"sqlite":   DialectSQLite,
	}
	for driver, want := range cases {
		got, err := DialectForDriver(driver)
		if err != nil || got != want {
			t.Fatalf("driver %q: expected %q, got %q err=%v", driver, want, got, err)
		}
	}
	if _, err := DialectForDriver("mysql"); err == nil {
		t.Fatalf("expected unknown driver to fail")
	}
}

func TestRegister_WithSourcesAndLabel(t *testing.T) {
	custom := fstest.MapFS{"0001_x.up.sql": &fstest.MapFile{Data: []byte("SELECT 1;")}}
	var labels []string
	_, err := Register(context.Background(), func(_ context.Context, dialect string, label string, fsys fs.FS) error {
		if dialect != DialectSQLite {
			t.Errorf("unexpected dialect %q", dialect)
		}
		if _, err := fs.ReadFile(fsys, "0001_x.up.sql"); err != nil {
			t.Errorf("expected custom source: %v", err)
		}
		labels = append(labels, label)
		return nil
	}, WithSources(Source{Dialect: " SQLite ", Path: "custom", FS: custom}), WithSourceLabel("tests"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(labels) != 1 || labels[0] != "tests" {
		t.Fatalf("expected one registration labelled tests, got %v", labels)
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected one sqlite registration, got %v", calls)
	}
	if reg.SourceLabel != "go-service-adapters" {
		t.Fatalf("unexpected source label %q", reg.SourceLabel)
	}
}

func TestRegister_PropagatesRegisterError(t *testing.T) {
	_, err := Register(context.Background(), func(context.Context, string, string, fs.FS) error {
		return errors.New("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected register error, got %v", err)
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected nil register func to fail")
	}
}

func TestServiceInstancesMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := services.GetMigrationsFS()
	paths := []string{
		"data/sql/migrations/0001_service_instances.up.sql",
		"data/sql/migrations/0001_service_instances.down.sql",
		"data/sql/migrations/sqlite/0001_service_instances.up.sql",
		"data/sql/migrations/sqlite/0001_service_instances.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteServiceInstancesMigration_PrimaryUniquenessAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", "file:migrations-service-instances?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(services.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	if err := execSQLMigration(ctx, db, sqliteMigrations, "0001_service_instances.up.sql"); err != nil {
		t.Fatalf("apply migration up: %v", err)
	}

	insert := `INSERT INTO service_instances (id, tenant_id, service_type, adapter_type, name, config, is_primary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "a", "acme", "DID", "VCKIT", "primary", "{}", 1); err != nil {
		t.Fatalf("insert primary: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "b", "acme", "DID", "VCKIT", "secondary", "{}", 0); err != nil {
		t.Fatalf("insert non-primary: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "c", "acme", "DID", "VCKIT", "second primary", "{}", 1); err == nil {
		t.Fatalf("expected second primary for tenant and service type to be rejected")
	}
	if _, err := db.ExecContext(ctx, insert, "d", "acme", "STORAGE", "S3", "storage primary", "{}", 1); err != nil {
		t.Fatalf("insert primary for another service type: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "e", "acme", "EMAIL", "SMTP", "bad", "{}", 0); err == nil {
		t.Fatalf("expected unknown service type to be rejected")
	}

	if _, err := db.ExecContext(ctx, `UPDATE service_instances SET deleted_at = CURRENT_TIMESTAMP WHERE id = 'a'`); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "f", "acme", "DID", "VCKIT", "replacement", "{}", 1); err != nil {
		t.Fatalf("expected primary slot to free up after soft delete: %v", err)
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "0001_service_instances.down.sql"); err != nil {
		t.Fatalf("apply migration down: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'service_instances'`,
	).Scan(&count); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected service_instances to be dropped")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
