package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/google/uuid"
)

// Store is the part of the alerts repository the evaluator needs.
type Store interface {
	ListAlerts(ctx context.Context, userID uuid.UUID) ([]models.PriceAlert, error)
	DeleteAlert(ctx context.Context, alertID uint) error
}

type Notifier interface {
	Notify(ctx context.Context, n models.AlertNotification) error
}

// Report summarizes one evaluation pass.
type Report struct {
	Fired  []models.AlertNotification `json:"fired"`
	Pulsed bool                       `json:"pulsed"`
}

type Evaluator struct {
	store    Store
	notifier Notifier
	log      *slog.Logger
}

func NewEvaluator(store Store, notifier Notifier, log *slog.Logger) *Evaluator {
	return &Evaluator{
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// Evaluate checks the user's alerts against coins. Every alert that fires
// is notified and then deleted. One pulse follows if anything fired.
// Once the alerts are loaded the pass runs to the end even if ctx is
// cancelled, so a notified alert is always deleted.
func (e *Evaluator) Evaluate(ctx context.Context, userID uuid.UUID, coins []models.Coin) (Report, error) {
	const op = "alerts.Evaluator.Evaluate"

	var report Report

	if userID == uuid.Nil {
		return report, nil
	}

	pending, err := e.store.ListAlerts(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}

	ctx = context.WithoutCancel(ctx)

	for _, alert := range pending {
		coin, ok := matchSymbol(coins, alert.Symbol)
		if !ok || !coin.PriceUSD.Valid {
			continue
		}

		price := coin.PriceUSD.Decimal
		if !alert.Reached(price) {
			continue
		}

		n := notificationFor(alert, coin)
		report.Fired = append(report.Fired, n)

		if err := e.notifier.Notify(ctx, n); err != nil {
			e.log.Error("failed to deliver alert notification", slog.Uint64("alertID", uint64(alert.ID)), slog.Any("error", err))
		}

		if err := e.store.DeleteAlert(ctx, alert.ID); err != nil {
			e.log.Error("failed to delete fired alert", slog.Uint64("alertID", uint64(alert.ID)), slog.Any("error", err))
		}
	}

	if len(report.Fired) > 0 {
		report.Pulsed = true
		pulse := models.AlertNotification{ID: uuid.New(), Kind: models.NotificationPulse, UserID: userID}
		if err := e.notifier.Notify(ctx, pulse); err != nil {
			e.log.Error("failed to deliver pulse", slog.Any("error", err))
		}
	}

	return report, nil
}

// matchSymbol finds the first coin whose symbol equals symbol, ignoring case.
func matchSymbol(coins []models.Coin, symbol string) (models.Coin, bool) {
	for _, c := range coins {
		if strings.EqualFold(c.Symbol, symbol) {
			return c, true
		}
	}
	return models.Coin{}, false
}

func notificationFor(alert models.PriceAlert, coin models.Coin) models.AlertNotification {
	symbol := strings.ToUpper(coin.Symbol)

	return models.AlertNotification{
		ID:           uuid.New(),
		Kind:         models.NotificationAlert,
		UserID:       alert.UserID,
		AlertID:      alert.ID,
		Symbol:       symbol,
		Direction:    alert.Direction,
		TargetPrice:  alert.TargetPrice,
		CurrentPrice: coin.PriceUSD.Decimal,
		Message:      Message(symbol, alert.Direction, alert.TargetPrice),
	}
}
