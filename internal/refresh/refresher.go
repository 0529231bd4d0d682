package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Tonic56/crypto-market-watch/internal/alerts"
	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/google/uuid"
)

type Phase string

const (
	// PhaseCached is the local snapshot shown before the remote call returns.
	PhaseCached Phase = "cached"
	// PhaseFresh follows a successful fetch and store.
	PhaseFresh Phase = "fresh"
	// PhaseStale means the fetch or store failed; Coins is the cached read.
	PhaseStale Phase = "stale"
)

// View is what a screen renders after each step of a refresh.
type View struct {
	Phase  Phase
	Coins  []models.Coin
	Notice string
	Err    error
	Alerts alerts.Report
}

// ReadFunc reads the coins a screen displays from the local store.
type ReadFunc func(ctx context.Context) ([]models.Coin, error)

type CoinStore interface {
	ReplaceAll(ctx context.Context, coins []models.Coin) error
}

type MarketGateway interface {
	FetchCoins(ctx context.Context) ([]models.Coin, error)
}

type AlertEvaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID, coins []models.Coin) (alerts.Report, error)
}

// SnapshotSink receives every batch that was stored.
type SnapshotSink interface {
	PublishSnapshot(ctx context.Context, coins []models.Coin) error
}

type Refresher struct {
	mu sync.Mutex

	coins  CoinStore
	market MarketGateway
	alerts AlertEvaluator
	sink   SnapshotSink
	log    *slog.Logger
}

type Option func(*Refresher)

func WithSnapshotSink(sink SnapshotSink) Option {
	return func(r *Refresher) { r.sink = sink }
}

func New(coins CoinStore, market MarketGateway, evaluator AlertEvaluator, log *slog.Logger, opts ...Option) *Refresher {
	r := &Refresher{
		coins:  coins,
		market: market,
		alerts: evaluator,
		log:    log,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start runs one refresh cycle in the background. The channel yields the
// cached view, then a fresh or stale view, and is closed afterwards.
// Cancelling ctx drops views not yet delivered; a store write that already
// started still completes.
func (r *Refresher) Start(ctx context.Context, sess session.Session, read ReadFunc) <-chan View {
	out := make(chan View, 2)

	go func() {
		defer close(out)
		r.run(ctx, sess, read, out)
	}()

	return out
}

// Refresh runs a cycle and returns its last view.
func (r *Refresher) Refresh(ctx context.Context, sess session.Session, read ReadFunc) View {
	last := View{Phase: PhaseStale, Coins: []models.Coin{}}
	delivered := false

	for v := range r.Start(ctx, sess, read) {
		last = v
		delivered = true
	}

	if !delivered && ctx.Err() != nil {
		last.Err = ctx.Err()
	}

	return last
}

func (r *Refresher) run(ctx context.Context, sess session.Session, read ReadFunc, out chan<- View) {
	cached := r.read(ctx, PhaseCached, read)
	if !emit(ctx, out, cached) {
		return
	}

	fetched, err := r.market.FetchCoins(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.log.Warn("market refresh failed, keeping cached data", slog.Any("error", err))
		emit(ctx, out, View{
			Phase:  PhaseStale,
			Coins:  cached.Coins,
			Notice: errs.ErrNetworkUnavailable.Error(),
			Err:    errs.ErrNetworkUnavailable,
		})
		return
	}

	if err := r.store(ctx, fetched); err != nil {
		r.log.Error("failed to store market snapshot", slog.Any("error", err))
		emit(ctx, out, View{
			Phase:  PhaseStale,
			Coins:  cached.Coins,
			Notice: errs.ErrStorageUnavailable.Error(),
			Err:    errs.ErrStorageUnavailable,
		})
		return
	}

	if ctx.Err() != nil {
		return
	}

	var report alerts.Report
	if sess.SignedIn() && r.alerts != nil {
		report, err = r.alerts.Evaluate(ctx, sess.UserID, fetched)
		if err != nil {
			r.log.Error("alert evaluation failed", slog.String("userID", sess.UserID.String()), slog.Any("error", err))
		}
	}

	fresh := r.read(ctx, PhaseFresh, read)
	fresh.Alerts = report
	emit(ctx, out, fresh)
}

// store replaces the snapshot. Writes are serialized and detached from ctx
// so an abandoned refresh never leaves a half-applied batch.
func (r *Refresher) store(ctx context.Context, coins []models.Coin) error {
	writeCtx := context.WithoutCancel(ctx)

	r.mu.Lock()
	err := r.coins.ReplaceAll(writeCtx, coins)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if r.sink != nil {
		if err := r.sink.PublishSnapshot(writeCtx, coins); err != nil {
			r.log.Warn("failed to publish market snapshot", slog.Any("error", err))
		}
	}

	return nil
}

func (r *Refresher) read(ctx context.Context, phase Phase, read ReadFunc) View {
	coins, err := read(ctx)
	if err != nil {
		r.log.Error("failed to read local coins", slog.String("phase", string(phase)), slog.Any("error", err))

		v := View{Phase: phase, Coins: []models.Coin{}, Notice: errs.ErrStorageUnavailable.Error(), Err: errs.ErrStorageUnavailable}
		if errors.Is(err, errs.ErrNotSignedIn) {
			v.Notice, v.Err = errs.ErrNotSignedIn.Error(), errs.ErrNotSignedIn
		}
		return v
	}

	if coins == nil {
		coins = []models.Coin{}
	}

	return View{Phase: phase, Coins: coins}
}

func emit(ctx context.Context, out chan<- View, v View) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
