package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tonic56/crypto-market-watch/internal/format"
	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/shopspring/decimal"
)

// Message renders the user-facing text, e.g. "BTC rose to $50,000.00!".
func Message(symbol string, direction models.Direction, target decimal.Decimal) string {
	verb := "fell"
	if direction == models.DirectionAbove {
		verb = "rose"
	}
	return fmt.Sprintf("%s %s to %s!", symbol, verb, format.USD(target))
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, note models.AlertNotification) error {
	if note.Kind == models.NotificationPulse {
		n.log.Info("alert pulse", slog.String("userID", note.UserID.String()))
		return nil
	}

	n.log.Info("price alert fired",
		slog.String("userID", note.UserID.String()),
		slog.Uint64("alertID", uint64(note.AlertID)),
		slog.String("message", note.Message),
	)
	return nil
}

// MultiNotifier delivers to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, note models.AlertNotification) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
