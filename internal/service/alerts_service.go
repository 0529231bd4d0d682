package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/shopspring/decimal"
)

type AlertsService interface {
	CreateAlert(ctx context.Context, sess session.Session, coinID, rawTarget string) (*models.PriceAlert, error)
	ListAlerts(ctx context.Context, sess session.Session) ([]models.PriceAlert, error)
	DeleteAlert(ctx context.Context, sess session.Session, alertID uint) error
}

type alertsService struct {
	coinsRepo  repository.CoinsRepository
	alertsRepo repository.AlertsRepository
}

func NewAlertsService(coinsRepo repository.CoinsRepository, alertsRepo repository.AlertsRepository) AlertsService {
	return &alertsService{
		coinsRepo:  coinsRepo,
		alertsRepo: alertsRepo,
	}
}

// CreateAlert parses the user-entered target and stores an alert whose
// direction is derived from the coin's cached price.
func (s *alertsService) CreateAlert(ctx context.Context, sess session.Session, coinID, rawTarget string) (*models.PriceAlert, error) {
	const op = "service.alerts.CreateAlert"

	if err := sess.Require(); err != nil {
		return nil, err
	}

	target, err := ParsePrice(rawTarget)
	if err != nil {
		return nil, err
	}

	coin, err := s.coinsRepo.Get(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !coin.PriceUSD.Valid {
		return nil, fmt.Errorf("%s: no current price for %s: %w", op, coin.ID, errs.ErrInvalidPrice)
	}

	alert, err := s.alertsRepo.AddAlert(ctx, sess.UserID, coin.Symbol, target, coin.PriceUSD.Decimal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return alert, nil
}

func (s *alertsService) ListAlerts(ctx context.Context, sess session.Session) ([]models.PriceAlert, error) {
	const op = "service.alerts.ListAlerts"

	if err := sess.Require(); err != nil {
		return nil, err
	}

	alerts, err := s.alertsRepo.ListAlerts(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return alerts, nil
}

func (s *alertsService) DeleteAlert(ctx context.Context, sess session.Session, alertID uint) error {
	const op = "service.alerts.DeleteAlert"

	if err := sess.Require(); err != nil {
		return err
	}

	alert, err := s.alertsRepo.GetAlert(ctx, alertID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if alert.UserID != sess.UserID {
		return errs.ErrForbidden
	}

	return s.alertsRepo.DeleteAlert(ctx, alertID)
}

// ParsePrice accepts a positive decimal such as "50000" or "0.25".
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errs.ErrInvalidPrice
	}

	price, err := decimal.NewFromString(raw)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, errs.ErrInvalidPrice
	}

	return price, nil
}
