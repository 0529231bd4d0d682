package service

import (
	"context"
	"testing"

	"github.com/Tonic56/crypto-market-watch/internal/format"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCoinDetail(t *testing.T) {
	r := setupRepos(t)
	svc := NewCoinsService(r.coins, r.favorites)
	ctx := context.Background()

	btc := pricedCoin("bitcoin", "btc", "50000.5")
	change := 2.351
	capital := 1.2e12
	btc.ChangePercent24h = &change
	btc.MarketCap = &capital
	seedCoins(t, r, btc)

	t.Run("anonymous", func(t *testing.T) {
		detail, err := svc.GetCoinDetail(ctx, session.Anonymous, "bitcoin")
		require.NoError(t, err)

		assert.Equal(t, "$50,000.50", detail.Price)
		assert.Equal(t, "2.35%", detail.Change24h)
		assert.Equal(t, "1.20T", detail.MarketCap)
		assert.Equal(t, format.NotAvailable, detail.Volume)
		assert.False(t, detail.CanFavorite)
		assert.False(t, detail.IsFavorite)
	})

	t.Run("favorite", func(t *testing.T) {
		sess := signedIn(t, r, "alice@example.com")
		require.NoError(t, r.favorites.AddFavoriteCoin(ctx, sess.UserID, "bitcoin"))

		detail, err := svc.GetCoinDetail(ctx, sess, "bitcoin")
		require.NoError(t, err)
		assert.True(t, detail.CanFavorite)
		assert.True(t, detail.IsFavorite)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.GetCoinDetail(ctx, session.Anonymous, "dogecoin")
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}
