package service

import (
	"context"
	"fmt"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/Tonic56/crypto-market-watch/internal/session"
)

type NewsSource interface {
	FetchNews(ctx context.Context) ([]models.NewsArticle, error)
}

// NewsItem is an article with the viewer's favorite flag.
type NewsItem struct {
	models.NewsArticle
	IsFavorite bool `json:"isFavorite"`
}

type NewsService interface {
	Fetch(ctx context.Context, sess session.Session) ([]NewsItem, error)
}

type newsService struct {
	source        NewsSource
	favoritesRepo repository.FavoritesRepository
}

func NewNewsService(source NewsSource, favoritesRepo repository.FavoritesRepository) NewsService {
	return &newsService{
		source:        source,
		favoritesRepo: favoritesRepo,
	}
}

func (s *newsService) Fetch(ctx context.Context, sess session.Session) ([]NewsItem, error) {
	const op = "service.news.Fetch"

	articles, err := s.source.FetchNews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	favorites := map[string]struct{}{}
	if sess.SignedIn() {
		favorites, err = s.favoritesRepo.FavoriteNewsIDs(ctx, sess.UserID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	items := make([]NewsItem, 0, len(articles))
	for _, a := range articles {
		_, fav := favorites[a.ID]
		items = append(items, NewsItem{NewsArticle: a, IsFavorite: fav})
	}

	return items, nil
}
