package refresh

import (
	"context"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/google/uuid"
)

type CoinLister interface {
	List(ctx context.Context) ([]models.Coin, error)
	Search(ctx context.Context, query string) ([]models.Coin, error)
}

type FavoriteLister interface {
	ListFavoriteCoins(ctx context.Context, userID uuid.UUID) ([]models.Coin, error)
}

func AllCoins(repo CoinLister) ReadFunc {
	return repo.List
}

func SearchCoins(repo CoinLister, query string) ReadFunc {
	return func(ctx context.Context) ([]models.Coin, error) {
		return repo.Search(ctx, query)
	}
}

// FavoriteCoins reads the signed-in user's favorites.
func FavoriteCoins(repo FavoriteLister, sess session.Session) ReadFunc {
	return func(ctx context.Context) ([]models.Coin, error) {
		if err := sess.Require(); err != nil {
			return nil, err
		}
		return repo.ListFavoriteCoins(ctx, sess.UserID)
	}
}
