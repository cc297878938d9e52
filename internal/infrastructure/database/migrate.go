package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// migrateLogger routes golang-migrate output through logrus.
type migrateLogger struct {
	logger *logrus.Entry
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debugf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Logger.IsLevelEnabled(logrus.DebugLevel)
}

// Migrator applies the SQL files under a migrations directory.
type Migrator struct {
	m      *migrate.Migrate
	logger *logrus.Entry
}

func NewMigrator(dsn, migrationsPath string, logger *logrus.Entry) (*Migrator, error) {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return nil, fmt.Errorf("migration init: %w", err)
	}
	m.Log = migrateLogger{logger: logger}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return mg.logVersion("Schema up to date")
}

// Down rolls back n migrations.
func (mg *Migrator) Down(n int) error {
	if n <= 0 {
		return fmt.Errorf("migration down: step count must be positive, got %d", n)
	}
	if err := mg.m.Steps(-n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down: %w", err)
	}
	return mg.logVersion("Schema rolled back")
}

// Version returns the applied schema version. ok is false on an empty schema.
func (mg *Migrator) Version() (version uint, dirty, ok bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, true, nil
}

func (mg *Migrator) logVersion(msg string) error {
	version, dirty, ok, err := mg.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("migration: schema version %d is dirty, fix it manually", version)
	}
	mg.logger.WithFields(logrus.Fields{"version": version, "empty": !ok}).Info(msg)
	return nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// RunMigrations applies all pending migrations from migrationsPath.
func RunMigrations(dsn, migrationsPath string, logger *logrus.Entry) error {
	mg, err := NewMigrator(dsn, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}
