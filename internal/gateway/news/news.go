package news

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Tonic56/crypto-market-watch/internal/config"
	"github.com/Tonic56/crypto-market-watch/internal/gateway"
	"github.com/Tonic56/crypto-market-watch/internal/models"
)

type Client struct {
	http *gateway.Client
	url  string
	log  *slog.Logger
}

type response struct {
	Data []models.NewsArticle `json:"Data"`
}

func New(cfg config.NewsConfig, log *slog.Logger, opts ...gateway.Option) *Client {
	return &Client{
		http: gateway.NewClient(cfg.Timeout, cfg.Retries, log, opts...),
		url:  cfg.URL,
		log:  log,
	}
}

// FetchNews returns the latest articles. Entries without an id or a title
// are skipped.
func (c *Client) FetchNews(ctx context.Context) ([]models.NewsArticle, error) {
	const op = "news.Client.FetchNews"

	var resp response
	if err := c.http.Get(ctx, c.url, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	articles := make([]models.NewsArticle, 0, len(resp.Data))
	for _, a := range resp.Data {
		if a.ID == "" || a.Title == "" {
			continue
		}
		articles = append(articles, a)
	}

	return articles, nil
}
