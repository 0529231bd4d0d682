package service

import (
	"context"
	"fmt"

	"github.com/Tonic56/crypto-market-watch/internal/format"
	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/Tonic56/crypto-market-watch/internal/session"
)

// CoinDetail is the detail screen of one coin.
type CoinDetail struct {
	Coin        models.Coin `json:"coin"`
	Price       string      `json:"price"`
	Change24h   string      `json:"change24h"`
	MarketCap   string      `json:"marketCap"`
	Volume      string      `json:"volume"`
	MaxSupply   string      `json:"maxSupply"`
	IsFavorite  bool        `json:"isFavorite"`
	CanFavorite bool        `json:"canFavorite"`
}

type CoinsService interface {
	GetCoinDetail(ctx context.Context, sess session.Session, coinID string) (*CoinDetail, error)
}

type coinsService struct {
	coinsRepo     repository.CoinsRepository
	favoritesRepo repository.FavoritesRepository
}

func NewCoinsService(coinsRepo repository.CoinsRepository, favoritesRepo repository.FavoritesRepository) CoinsService {
	return &coinsService{
		coinsRepo:     coinsRepo,
		favoritesRepo: favoritesRepo,
	}
}

func (s *coinsService) GetCoinDetail(ctx context.Context, sess session.Session, coinID string) (*CoinDetail, error) {
	const op = "service.coins.GetCoinDetail"

	coin, err := s.coinsRepo.Get(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	detail := &CoinDetail{
		Coin:        *coin,
		Price:       format.Currency(coin.PriceUSD),
		Change24h:   format.Percent(coin.ChangePercent24h),
		MarketCap:   format.LargeNumber(coin.MarketCap),
		Volume:      format.LargeNumber(coin.TotalVolume),
		MaxSupply:   format.LargeNumber(coin.MaxSupply),
		CanFavorite: sess.SignedIn(),
	}

	if sess.SignedIn() {
		detail.IsFavorite, err = s.favoritesRepo.IsFavoriteCoin(ctx, sess.UserID, coin.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return detail, nil
}
