package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/storage/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
)

type repos struct {
	users     repository.UsersRepository
	coins     repository.CoinsRepository
	favorites repository.FavoritesRepository
	alerts    repository.AlertsRepository
}

func setupRepos(t *testing.T) repos {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := database.Open(sqlite.Open(dsn), database.MigrationAdditive, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Stop() })

	return repos{
		users:     repository.NewUsersRepository(storage.DB),
		coins:     repository.NewCoinsRepository(storage.DB),
		favorites: repository.NewFavoritesRepository(storage.DB),
		alerts:    repository.NewAlertsRepository(storage.DB),
	}
}

func newUsersService(r repos) UsersService {
	return NewUsersService(r.users, session.NewIssuer("test-secret", time.Hour), bcrypt.MinCost)
}

func signedIn(t *testing.T, r repos, email string) session.Session {
	t.Helper()

	res, err := newUsersService(r).Register(context.Background(), "user", email, "pw")
	require.NoError(t, err)
	return res.Session
}

func seedCoins(t *testing.T, r repos, coins ...models.Coin) {
	t.Helper()
	require.NoError(t, r.coins.ReplaceAll(context.Background(), coins))
}

func pricedCoin(id, symbol, price string) models.Coin {
	c := models.Coin{ID: id, Symbol: symbol, Name: id}
	if price != "" {
		c.PriceUSD = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	return c
}
