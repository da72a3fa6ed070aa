package db

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO)
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens the settings database at path, creating it and its directory
// when missing. The pool holds a single connection.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", filepath.Dir(path))
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open settings db %s", path)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping settings db %s", path)
	}
	return db, nil
}

// ApplyMigrations runs every embedded *.sql file in lexicographic order.
// Migrations use IF NOT EXISTS, so this is idempotent.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	// Execute each file in its own transaction.
	for _, f := range files {
		sqlBytes, readErr := migrations.ReadFile(f)
		if readErr != nil {
			return errors.Wrapf(readErr, "read %s", f)
		}

		tx, beginErr := db.BeginTx(ctx, &sql.TxOptions{})
		if beginErr != nil {
			return errors.Wrapf(beginErr, "begin tx for %s", f)
		}

		if _, execErr := tx.ExecContext(ctx, string(sqlBytes)); execErr != nil {
			_ = tx.Rollback()
			return errors.Wrapf(execErr, "exec %s", f)
		}
		if commitErr := tx.Commit(); commitErr != nil {
			return errors.Wrapf(commitErr, "commit %s", f)
		}
	}

	return nil
}
