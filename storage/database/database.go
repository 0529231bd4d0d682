package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Tonic56/crypto-market-watch/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	connectAttempts = 5
	connectDelay    = 2 * time.Second
)

type Storage struct {
	DB *gorm.DB
}

func New(cfg config.DBConfig, log *slog.Logger) (*Storage, error) {
	const op = "storage.database.New"

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, gormConfig())
		if err == nil {
			break
		}
		log.Warn("failed to open database, retrying...", "driver", cfg.Driver, "attempt", i+1, "error", err)
		time.Sleep(connectDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after multiple retries: %w", op, err)
	}

	if err := limitSQLiteWriters(db); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("database connected", "driver", cfg.Driver)

	mode, err := ParseMigrationMode(cfg.MigrationMode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	version, err := Migrate(db, mode, log)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to migrate database: %w", op, err)
	}
	log.Info("database schema ready", "version", version, "mode", string(mode))

	return &Storage{DB: db}, nil
}

// Open returns a migrated store around an existing dialector. Tests use it
// with in-memory sqlite.
func Open(dialector gorm.Dialector, mode MigrationMode, log *slog.Logger) (*Storage, error) {
	const op = "storage.database.Open"

	db, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := limitSQLiteWriters(db); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := Migrate(db, mode, log); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

func (s *Storage) Stop() error {
	sqlDb, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db connection: %w", err)
	}

	return sqlDb.Close()
}

func dialectorFor(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return sqlite.Open(cfg.Path), nil
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// sqlite allows one writer; a single connection keeps delete+insert
// batches from interleaving with other writes.
func limitSQLiteWriters(db *gorm.DB) error {
	if db.Dialector.Name() != DriverSQLite {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)

	return nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}
