package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"gorm.io/gorm"
)

const insertBatchSize = 100

type CoinsRepository interface {
	ReplaceAll(ctx context.Context, coins []models.Coin) error
	List(ctx context.Context) ([]models.Coin, error)
	Search(ctx context.Context, query string) ([]models.Coin, error)
	Get(ctx context.Context, id string) (*models.Coin, error)
}

type coinsRepository struct {
	db *gorm.DB
}

func NewCoinsRepository(db *gorm.DB) CoinsRepository {
	return &coinsRepository{
		db: db,
	}
}

// ReplaceAll swaps the cached snapshot for coins in one transaction, so a
// reader sees either the previous batch or the new one.
func (db *coinsRepository) ReplaceAll(ctx context.Context, coins []models.Coin) error {
	const op = "repository.coins.ReplaceAll"

	batch := dedupeByID(coins)

	err := db.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Coin{}).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		return tx.CreateInBatches(&batch, insertBatchSize).Error
	})
	if err != nil {
		return storageErr(op, err)
	}

	return nil
}

func (db *coinsRepository) List(ctx context.Context) ([]models.Coin, error) {
	const op = "repository.coins.List"

	coins := make([]models.Coin, 0)
	if err := byRank(db.db.WithContext(ctx), "coins").Find(&coins).Error; err != nil {
		return nil, storageErr(op, err)
	}

	return coins, nil
}

func (db *coinsRepository) Search(ctx context.Context, query string) ([]models.Coin, error) {
	const op = "repository.coins.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return db.List(ctx)
	}

	pattern := "%" + strings.ToLower(query) + "%"
	coins := make([]models.Coin, 0)
	err := byRank(db.db.WithContext(ctx), "coins").
		Where("LOWER(name) LIKE ? OR LOWER(symbol) LIKE ?", pattern, pattern).
		Find(&coins).Error
	if err != nil {
		return nil, storageErr(op, err)
	}

	return coins, nil
}

func (db *coinsRepository) Get(ctx context.Context, id string) (*models.Coin, error) {
	const op = "repository.coins.Get"

	var coin models.Coin
	if err := db.db.WithContext(ctx).Where("id = ?", id).First(&coin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, storageErr(op, err)
	}

	return &coin, nil
}

// byRank orders by market cap rank ascending with unranked coins last and
// the coin id as tie-break.
func byRank(db *gorm.DB, table string) *gorm.DB {
	return db.
		Order(table + ".market_cap_rank IS NULL").
		Order(table + ".market_cap_rank ASC").
		Order(table + ".id ASC")
}

// dedupeByID keeps the last occurrence of every id, in first-seen order.
func dedupeByID(coins []models.Coin) []models.Coin {
	index := make(map[string]int, len(coins))
	out := make([]models.Coin, 0, len(coins))

	for _, coin := range coins {
		if i, ok := index[coin.ID]; ok {
			out[i] = coin
			continue
		}
		index[coin.ID] = len(out)
		out = append(out, coin)
	}

	return out
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, errs.ErrStorageUnavailable, err)
}
