package sqlstore

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/store/drivers/sqlstore/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ApplyMigrations applies pending embedded migrations for the store's
// dialect. The migrate instance is not closed since that would close the
// shared *sql.DB.
func (s *Store) ApplyMigrations() error {
	var (
		driver database.Driver
		files  fs.FS
		dir    string
		err    error
	)

	switch s.dialect {
	case DialectPostgres:
		driver, err = migratepgx.WithInstance(s.db, &migratepgx.Config{})
		files, dir = migrations.Postgres, "postgres"
	default:
		driver, err = migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
		files, dir = migrations.SQLite, "sqlite"
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	source, err := iofs.New(files, dir)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", source, string(s.dialect), driver)
	if err != nil {
		return err
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
