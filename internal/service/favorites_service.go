package service

import (
	"context"
	"fmt"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
)

type FavoritesService interface {
	SetFavoriteCoin(ctx context.Context, sess session.Session, coinID string, favorite bool) error
	ToggleFavoriteCoin(ctx context.Context, sess session.Session, coinID string) (bool, error)

	SetFavoriteNews(ctx context.Context, sess session.Session, article models.NewsArticle, favorite bool) error
	ToggleFavoriteNews(ctx context.Context, sess session.Session, article models.NewsArticle) (bool, error)
	ListFavoriteNews(ctx context.Context, sess session.Session) ([]models.FavoriteNews, error)
}

type favoritesService struct {
	coinsRepo     repository.CoinsRepository
	favoritesRepo repository.FavoritesRepository
}

func NewFavoritesService(coinsRepo repository.CoinsRepository, favoritesRepo repository.FavoritesRepository) FavoritesService {
	return &favoritesService{
		coinsRepo:     coinsRepo,
		favoritesRepo: favoritesRepo,
	}
}

func (s *favoritesService) SetFavoriteCoin(ctx context.Context, sess session.Session, coinID string, favorite bool) error {
	const op = "service.favorites.SetFavoriteCoin"

	if err := sess.Require(); err != nil {
		return err
	}

	if !favorite {
		if err := s.favoritesRepo.RemoveFavoriteCoin(ctx, sess.UserID, coinID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	if _, err := s.coinsRepo.Get(ctx, coinID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.favoritesRepo.AddFavoriteCoin(ctx, sess.UserID, coinID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ToggleFavoriteCoin flips the star and returns the new state.
func (s *favoritesService) ToggleFavoriteCoin(ctx context.Context, sess session.Session, coinID string) (bool, error) {
	const op = "service.favorites.ToggleFavoriteCoin"

	if err := sess.Require(); err != nil {
		return false, err
	}

	current, err := s.favoritesRepo.IsFavoriteCoin(ctx, sess.UserID, coinID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.SetFavoriteCoin(ctx, sess, coinID, !current); err != nil {
		return current, err
	}

	return !current, nil
}

func (s *favoritesService) SetFavoriteNews(ctx context.Context, sess session.Session, article models.NewsArticle, favorite bool) error {
	const op = "service.favorites.SetFavoriteNews"

	if err := sess.Require(); err != nil {
		return err
	}

	if article.ID == "" {
		return errs.ErrInvalidInput
	}

	if !favorite {
		if err := s.favoritesRepo.RemoveFavoriteNews(ctx, sess.UserID, article.ID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	if article.Title == "" {
		return errs.ErrInvalidInput
	}

	if err := s.favoritesRepo.AddFavoriteNews(ctx, sess.UserID, article); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *favoritesService) ToggleFavoriteNews(ctx context.Context, sess session.Session, article models.NewsArticle) (bool, error) {
	const op = "service.favorites.ToggleFavoriteNews"

	if err := sess.Require(); err != nil {
		return false, err
	}

	current, err := s.favoritesRepo.IsFavoriteNews(ctx, sess.UserID, article.ID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.SetFavoriteNews(ctx, sess, article, !current); err != nil {
		return current, err
	}

	return !current, nil
}

func (s *favoritesService) ListFavoriteNews(ctx context.Context, sess session.Session) ([]models.FavoriteNews, error) {
	const op = "service.favorites.ListFavoriteNews"

	if err := sess.Require(); err != nil {
		return nil, err
	}

	news, err := s.favoritesRepo.ListFavoriteNews(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return news, nil
}
