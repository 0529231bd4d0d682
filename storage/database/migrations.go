package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"gorm.io/gorm"
)

type MigrationMode string

const (
	// MigrationAdditive applies each pending step in order and keeps data.
	MigrationAdditive MigrationMode = "additive"
	// MigrationDestructive drops every table and recreates the latest
	// schema whenever the stored version is behind. All data is lost.
	MigrationDestructive MigrationMode = "destructive"
)

func ParseMigrationMode(s string) (MigrationMode, error) {
	switch MigrationMode(s) {
	case MigrationAdditive, "":
		return MigrationAdditive, nil
	case MigrationDestructive:
		return MigrationDestructive, nil
	default:
		return "", fmt.Errorf("unknown migration mode %q", s)
	}
}

type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

type schemaVersion struct {
	Version   int `gorm:"primaryKey;autoIncrement:false"`
	Name      string
	AppliedAt time.Time
}

func (schemaVersion) TableName() string { return "schema_versions" }

var migrations = []Migration{
	{
		Version: 1,
		Name:    "coins cache",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.Coin{})
		},
	},
	{
		Version: 2,
		Name:    "users and favorite coins",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.User{}, &models.FavoriteCoin{})
		},
	},
	{
		Version: 3,
		Name:    "price alerts and favorite news",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.PriceAlert{}, &models.FavoriteNews{})
		},
	},
	{
		Version: 4,
		Name:    "external sign-in subject",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.User{})
		},
	},
}

func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// Migrate brings db up to LatestVersion and returns the resulting version.
func Migrate(db *gorm.DB, mode MigrationMode, log *slog.Logger) (int, error) {
	return migrate(db, migrations, mode, log)
}

func migrate(db *gorm.DB, chain []Migration, mode MigrationMode, log *slog.Logger) (int, error) {
	const op = "storage.database.migrate"

	if err := db.AutoMigrate(&schemaVersion{}); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	current, err := CurrentVersion(db)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	latest := 0
	if len(chain) > 0 {
		latest = chain[len(chain)-1].Version
	}

	switch {
	case current > latest:
		return current, fmt.Errorf("%s: version %d > %d: %w", op, current, latest, errs.ErrSchemaTooNew)
	case current == latest:
		return current, nil
	}

	if mode == MigrationDestructive {
		log.Warn("schema upgrade drops all tables", "from", current, "to", latest)
		if err := recreate(db, chain); err != nil {
			return current, fmt.Errorf("%s: %w", op, err)
		}
		return latest, nil
	}

	for _, m := range chain {
		if m.Version <= current {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaVersion{Version: m.Version, Name: m.Name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return current, fmt.Errorf("%s: step %d (%s): %w", op, m.Version, m.Name, err)
		}

		current = m.Version
		log.Info("applied migration", "version", m.Version, "name", m.Name)
	}

	return current, nil
}

func recreate(db *gorm.DB, chain []Migration) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Migrator().DropTable(models.All()...); err != nil {
			return err
		}

		for _, m := range chain {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("step %d (%s): %w", m.Version, m.Name, err)
			}
		}

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&schemaVersion{}).Error; err != nil {
			return err
		}

		last := chain[len(chain)-1]
		return tx.Create(&schemaVersion{Version: last.Version, Name: last.Name, AppliedAt: time.Now()}).Error
	})
}

func CurrentVersion(db *gorm.DB) (int, error) {
	var version int
	if err := db.Model(&schemaVersion{}).Select("COALESCE(MAX(version), 0)").Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}
