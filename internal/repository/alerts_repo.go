package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AlertsRepository interface {
	AddAlert(ctx context.Context, userID uuid.UUID, symbol string, target, current decimal.Decimal) (*models.PriceAlert, error)
	GetAlert(ctx context.Context, alertID uint) (*models.PriceAlert, error)
	ListAlerts(ctx context.Context, userID uuid.UUID) ([]models.PriceAlert, error)
	DeleteAlert(ctx context.Context, alertID uint) error
}

type alertsRepository struct {
	db *gorm.DB
}

func NewAlertsRepository(db *gorm.DB) AlertsRepository {
	return &alertsRepository{db: db}
}

// AddAlert stores a one-shot alert. The direction is fixed here from the
// price at creation time.
func (db *alertsRepository) AddAlert(ctx context.Context, userID uuid.UUID, symbol string, target, current decimal.Decimal) (*models.PriceAlert, error) {
	const op = "repository.alerts.AddAlert"

	alert := &models.PriceAlert{
		UserID:      userID,
		Symbol:      strings.ToLower(symbol),
		TargetPrice: target,
		Direction:   models.DirectionFor(target, current),
	}

	if err := db.db.WithContext(ctx).Create(alert).Error; err != nil {
		return nil, storageErr(op, err)
	}

	return alert, nil
}

func (db *alertsRepository) GetAlert(ctx context.Context, alertID uint) (*models.PriceAlert, error) {
	const op = "repository.alerts.GetAlert"

	var alert models.PriceAlert
	if err := db.db.WithContext(ctx).Where("id = ?", alertID).First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, storageErr(op, err)
	}

	return &alert, nil
}

func (db *alertsRepository) ListAlerts(ctx context.Context, userID uuid.UUID) ([]models.PriceAlert, error) {
	const op = "repository.alerts.ListAlerts"

	alerts := make([]models.PriceAlert, 0)
	if err := db.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&alerts).Error; err != nil {
		return nil, storageErr(op, err)
	}

	return alerts, nil
}

func (db *alertsRepository) DeleteAlert(ctx context.Context, alertID uint) error {
	const op = "repository.alerts.DeleteAlert"

	result := db.db.WithContext(ctx).Delete(&models.PriceAlert{}, alertID)

	if result.Error != nil {
		return storageErr(op, result.Error)
	}

	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}

	return nil
}
