package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Dir is the directory inside the embedded filesystem that holds migrations.
const Dir = "migrations"

var gooseMu sync.Mutex

// Run executes a goose command (up, down, status, ...) against db using the
// embedded migrations. dialect follows goose naming: postgres or sqlite3.
func Run(ctx context.Context, db *sql.DB, dialect string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	return Run(ctx, db, dialect, "up")
}

// Files returns the embedded migration filesystem rooted at Dir.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, Dir)
	if err != nil {
		panic(err)
	}
	return sub
}
