package repository

import (
	"context"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoritesRepository interface {
	AddFavoriteCoin(ctx context.Context, userID uuid.UUID, coinID string) error
	RemoveFavoriteCoin(ctx context.Context, userID uuid.UUID, coinID string) error
	IsFavoriteCoin(ctx context.Context, userID uuid.UUID, coinID string) (bool, error)
	ListFavoriteCoins(ctx context.Context, userID uuid.UUID) ([]models.Coin, error)

	AddFavoriteNews(ctx context.Context, userID uuid.UUID, article models.NewsArticle) error
	RemoveFavoriteNews(ctx context.Context, userID uuid.UUID, articleID string) error
	IsFavoriteNews(ctx context.Context, userID uuid.UUID, articleID string) (bool, error)
	ListFavoriteNews(ctx context.Context, userID uuid.UUID) ([]models.FavoriteNews, error)
	FavoriteNewsIDs(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error)
}

type favoritesRepository struct {
	db *gorm.DB
}

func NewFavoritesRepository(db *gorm.DB) FavoritesRepository {
	return &favoritesRepository{db: db}
}

func (db *favoritesRepository) AddFavoriteCoin(ctx context.Context, userID uuid.UUID, coinID string) error {
	const op = "repository.favorites.AddFavoriteCoin"

	favorite := &models.FavoriteCoin{UserID: userID, CoinID: coinID}
	if err := db.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(favorite).Error; err != nil {
		return storageErr(op, err)
	}

	return nil
}

func (db *favoritesRepository) RemoveFavoriteCoin(ctx context.Context, userID uuid.UUID, coinID string) error {
	const op = "repository.favorites.RemoveFavoriteCoin"

	err := db.db.WithContext(ctx).
		Where("user_id = ? AND coin_id = ?", userID, coinID).
		Delete(&models.FavoriteCoin{}).Error
	if err != nil {
		return storageErr(op, err)
	}

	return nil
}

func (db *favoritesRepository) IsFavoriteCoin(ctx context.Context, userID uuid.UUID, coinID string) (bool, error) {
	const op = "repository.favorites.IsFavoriteCoin"

	var count int64
	err := db.db.WithContext(ctx).Model(&models.FavoriteCoin{}).
		Where("user_id = ? AND coin_id = ?", userID, coinID).
		Count(&count).Error
	if err != nil {
		return false, storageErr(op, err)
	}

	return count > 0, nil
}

// ListFavoriteCoins joins favorites with the coin cache. Favorites whose
// coin is missing from the latest snapshot are not returned.
func (db *favoritesRepository) ListFavoriteCoins(ctx context.Context, userID uuid.UUID) ([]models.Coin, error) {
	const op = "repository.favorites.ListFavoriteCoins"

	coins := make([]models.Coin, 0)
	err := byRank(db.db.WithContext(ctx), "coins").
		Model(&models.Coin{}).
		Select("coins.*").
		Joins("JOIN favorite_coins ON favorite_coins.coin_id = coins.id").
		Where("favorite_coins.user_id = ?", userID).
		Find(&coins).Error
	if err != nil {
		return nil, storageErr(op, err)
	}

	return coins, nil
}

func (db *favoritesRepository) AddFavoriteNews(ctx context.Context, userID uuid.UUID, article models.NewsArticle) error {
	const op = "repository.favorites.AddFavoriteNews"

	favorite := &models.FavoriteNews{
		UserID:     userID,
		ArticleID:  article.ID,
		Title:      article.Title,
		URL:        article.URL,
		ImageURL:   article.ImageURL,
		SourceName: article.SourceName(),
	}

	if err := db.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(favorite).Error; err != nil {
		return storageErr(op, err)
	}

	return nil
}

func (db *favoritesRepository) RemoveFavoriteNews(ctx context.Context, userID uuid.UUID, articleID string) error {
	const op = "repository.favorites.RemoveFavoriteNews"

	err := db.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&models.FavoriteNews{}).Error
	if err != nil {
		return storageErr(op, err)
	}

	return nil
}

func (db *favoritesRepository) IsFavoriteNews(ctx context.Context, userID uuid.UUID, articleID string) (bool, error) {
	const op = "repository.favorites.IsFavoriteNews"

	var count int64
	err := db.db.WithContext(ctx).Model(&models.FavoriteNews{}).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&count).Error
	if err != nil {
		return false, storageErr(op, err)
	}

	return count > 0, nil
}

func (db *favoritesRepository) ListFavoriteNews(ctx context.Context, userID uuid.UUID) ([]models.FavoriteNews, error) {
	const op = "repository.favorites.ListFavoriteNews"

	news := make([]models.FavoriteNews, 0)
	err := db.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("article_id ASC").
		Find(&news).Error
	if err != nil {
		return nil, storageErr(op, err)
	}

	return news, nil
}

func (db *favoritesRepository) FavoriteNewsIDs(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error) {
	const op = "repository.favorites.FavoriteNewsIDs"

	var ids []string
	err := db.db.WithContext(ctx).Model(&models.FavoriteNews{}).
		Where("user_id = ?", userID).
		Pluck("article_id", &ids).Error
	if err != nil {
		return nil, storageErr(op, err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set, nil
}
