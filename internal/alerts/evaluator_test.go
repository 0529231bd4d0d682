package alerts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu     sync.Mutex
	alerts []models.PriceAlert
}

func (s *memStore) ListAlerts(_ context.Context, userID uuid.UUID) ([]models.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PriceAlert
	for _, a := range s.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) DeleteAlert(_ context.Context, alertID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alerts {
		if a.ID == alertID {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return nil
		}
	}
	return nil
}

type recorder struct {
	notes []models.AlertNotification
	err   error
}

func (r *recorder) Notify(_ context.Context, n models.AlertNotification) error {
	r.notes = append(r.notes, n)
	return r.err
}

func (r *recorder) kinds() []string {
	var out []string
	for _, n := range r.notes {
		out = append(out, n.Kind)
	}
	return out
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func priced(symbol, price string) models.Coin {
	return models.Coin{ID: symbol, Symbol: symbol, Name: symbol, PriceUSD: decimal.NewNullDecimal(decimal.RequireFromString(price))}
}

func alert(id uint, user uuid.UUID, symbol string, target int64, dir models.Direction) models.PriceAlert {
	return models.PriceAlert{ID: id, UserID: user, Symbol: symbol, TargetPrice: decimal.NewFromInt(target), Direction: dir}
}

func TestEvaluateBothDirectionsAtSamePrice(t *testing.T) {
	user := uuid.New()
	store := &memStore{alerts: []models.PriceAlert{
		alert(1, user, "btc", 50000, models.DirectionAbove),
		alert(2, user, "btc", 60000, models.DirectionBelow),
	}}
	rec := &recorder{}

	report, err := NewEvaluator(store, rec, discard()).Evaluate(context.Background(), user, []models.Coin{priced("BTC", "55000")})
	require.NoError(t, err)

	require.Len(t, report.Fired, 2)
	assert.True(t, report.Pulsed)
	assert.Equal(t, []string{models.NotificationAlert, models.NotificationAlert, models.NotificationPulse}, rec.kinds())

	assert.Equal(t, "BTC rose to $50,000.00!", report.Fired[0].Message)
	assert.Equal(t, "BTC fell to $60,000.00!", report.Fired[1].Message)
	assert.True(t, decimal.NewFromInt(55000).Equal(report.Fired[0].CurrentPrice))

	left, _ := store.ListAlerts(context.Background(), user)
	assert.Empty(t, left)
}

func TestEvaluateIsOneShot(t *testing.T) {
	user := uuid.New()
	store := &memStore{alerts: []models.PriceAlert{alert(1, user, "eth", 3000, models.DirectionAbove)}}
	rec := &recorder{}
	ev := NewEvaluator(store, rec, discard())
	coins := []models.Coin{priced("eth", "3100")}

	first, err := ev.Evaluate(context.Background(), user, coins)
	require.NoError(t, err)
	assert.Len(t, first.Fired, 1)

	second, err := ev.Evaluate(context.Background(), user, coins)
	require.NoError(t, err)
	assert.Empty(t, second.Fired)
	assert.False(t, second.Pulsed)
	assert.Len(t, rec.notes, 2)
}

func TestEvaluateSkips(t *testing.T) {
	user := uuid.New()
	other := uuid.New()
	store := &memStore{alerts: []models.PriceAlert{
		alert(1, user, "btc", 60000, models.DirectionAbove),
		alert(2, user, "xyz", 1, models.DirectionAbove),
		alert(3, user, "usdt", 2, models.DirectionBelow),
		alert(4, other, "btc", 1, models.DirectionAbove),
	}}
	rec := &recorder{}

	coins := []models.Coin{
		priced("btc", "55000"),
		{ID: "tether", Symbol: "usdt", Name: "Tether"},
	}

	report, err := NewEvaluator(store, rec, discard()).Evaluate(context.Background(), user, coins)
	require.NoError(t, err)
	assert.Empty(t, report.Fired)
	assert.False(t, report.Pulsed)
	assert.Empty(t, rec.notes)
	assert.Len(t, store.alerts, 4)
}

func TestEvaluateFirstMatchingSymbolWins(t *testing.T) {
	user := uuid.New()
	store := &memStore{alerts: []models.PriceAlert{alert(1, user, "dup", 10, models.DirectionAbove)}}

	coins := []models.Coin{priced("dup", "5"), priced("DUP", "50")}

	report, err := NewEvaluator(store, &recorder{}, discard()).Evaluate(context.Background(), user, coins)
	require.NoError(t, err)
	assert.Empty(t, report.Fired)
}

func TestEvaluateNotifierFailureStillDeletes(t *testing.T) {
	user := uuid.New()
	store := &memStore{alerts: []models.PriceAlert{alert(1, user, "btc", 100, models.DirectionAbove)}}
	rec := &recorder{err: errors.New("bus down")}

	report, err := NewEvaluator(store, rec, discard()).Evaluate(context.Background(), user, []models.Coin{priced("btc", "100")})
	require.NoError(t, err)
	assert.Len(t, report.Fired, 1)
	assert.Empty(t, store.alerts)
}

func TestEvaluateAnonymous(t *testing.T) {
	report, err := NewEvaluator(&memStore{}, &recorder{}, discard()).Evaluate(context.Background(), uuid.Nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Fired)
}

func TestMultiNotifier(t *testing.T) {
	a := &recorder{}
	b := &recorder{err: errors.New("boom")}
	c := &recorder{}

	err := MultiNotifier{a, b, c}.Notify(context.Background(), models.AlertNotification{Kind: models.NotificationPulse})
	assert.EqualError(t, err, "boom")
	assert.Len(t, a.notes, 1)
	assert.Len(t, c.notes, 1)
}

// ctxStore fails deletes whose context is already done.
type ctxStore struct {
	memStore
}

func (s *ctxStore) DeleteAlert(ctx context.Context, alertID uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.memStore.DeleteAlert(ctx, alertID)
}

type cancellingNotifier struct {
	recorder
	cancel context.CancelFunc
}

func (n *cancellingNotifier) Notify(ctx context.Context, note models.AlertNotification) error {
	n.cancel()
	return n.recorder.Notify(ctx, note)
}

func TestEvaluateCancelledAfterNotifyStillDeletes(t *testing.T) {
	user := uuid.New()
	store := &ctxStore{memStore{alerts: []models.PriceAlert{alert(1, user, "btc", 100, models.DirectionAbove)}}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifier := &cancellingNotifier{cancel: cancel}

	report, err := NewEvaluator(store, notifier, discard()).Evaluate(ctx, user, []models.Coin{priced("btc", "150")})
	require.NoError(t, err)
	assert.Len(t, report.Fired, 1)
	assert.Equal(t, []string{models.NotificationAlert, models.NotificationPulse}, notifier.kinds())
	assert.Empty(t, store.alerts)

	again, err := NewEvaluator(store, notifier, discard()).Evaluate(context.Background(), user, []models.Coin{priced("btc", "150")})
	require.NoError(t, err)
	assert.Empty(t, again.Fired)
}

func TestEvaluateBelowThreshold(t *testing.T) {
	tests := []struct {
		name  string
		price string
		fires bool
	}{
		{name: "strictly_above_target", price: "60001", fires: false},
		{name: "at_target", price: "60000", fires: true},
		{name: "under_target", price: "59999.99", fires: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := uuid.New()
			store := &memStore{alerts: []models.PriceAlert{alert(1, user, "btc", 60000, models.DirectionBelow)}}
			rec := &recorder{}

			report, err := NewEvaluator(store, rec, discard()).Evaluate(context.Background(), user, []models.Coin{priced("btc", tt.price)})
			require.NoError(t, err)

			if tt.fires {
				require.Len(t, report.Fired, 1)
				assert.Equal(t, "BTC fell to $60,000.00!", report.Fired[0].Message)
				assert.Empty(t, store.alerts)
			} else {
				assert.Empty(t, report.Fired)
				assert.Empty(t, rec.notes)
				assert.Len(t, store.alerts, 1)
			}
		})
	}
}
