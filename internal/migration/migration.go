package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// Source returns the embedded migration files.
func Source() (fs.FS, error) {
	return fs.Sub(embeddedMigrations, migrationsDir)
}

// Up applies all pending migrations against dsn. It reports whether
// anything was applied.
func Up(dsn string) (bool, error) {
	db, err := openDB(dsn)
	if err != nil {
		return false, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return RunMigrations(db)
}

// RunMigrations applies embedded migrations using an existing handle. The
// handle stays open.
func RunMigrations(db *sql.DB) (bool, error) {
	if db == nil {
		return false, errors.New("migration database handle is required")
	}

	sub, err := Source()
	if err != nil {
		return false, fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return false, fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return false, fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return false, fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if errors.Is(upErr, migrate.ErrNoChange) {
		return false, nil
	}
	if upErr != nil {
		return false, fmt.Errorf("apply migrations: %w", upErr)
	}
	return true, nil
}
