package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Migrator applies the SQL files of a migrations directory through
// golang-migrate, over a database/sql handle opened with the pgx driver.
type Migrator struct {
	m  *migrate.Migrate
	db *sql.DB
}

// NewMigrator opens databaseURL and reads migrations from dir.
func NewMigrator(databaseURL, dir string) (*Migrator, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations dir: %w", err)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(abs), "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m, db: db}, nil
}

// Up applies every pending migration. A dirty schema is an error.
func (g *Migrator) Up() error {
	err := g.m.Up()
	upToDate := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !upToDate {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := g.Version()
	switch {
	case err != nil:
		return err
	case dirty:
		return fmt.Errorf("migration version %d is dirty, fix the schema and force a version", version)
	case version == 0:
		log.Println("migrations: no migrations found")
	case upToDate:
		log.Printf("migrations: database is up to date (version %d)", version)
	default:
		log.Printf("migrations: applied successfully (version %d)", version)
	}
	return nil
}

// Down rolls back the most recent migration.
func (g *Migrator) Down() error {
	if err := g.m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Version returns the applied schema version, 0 when none is applied.
func (g *Migrator) Version() (uint, bool, error) {
	version, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and the database handle.
func (g *Migrator) Close() error {
	srcErr, drvErr := g.m.Close()
	return errors.Join(srcErr, drvErr, g.db.Close())
}

// Migrate applies all pending migrations in dir to databaseURL.
func Migrate(databaseURL, dir string) error {
	g, err := NewMigrator(databaseURL, dir)
	if err != nil {
		return err
	}
	defer g.Close()
	return g.Up()
}
