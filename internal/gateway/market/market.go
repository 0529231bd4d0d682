package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/config"
	"github.com/Tonic56/crypto-market-watch/internal/gateway"
	"github.com/Tonic56/crypto-market-watch/internal/models"
)

const marketsPath = "/api/v3/coins/markets"

type Client struct {
	http       *gateway.Client
	baseURL    string
	vsCurrency string
	perPage    int
	pages      int
	log        *slog.Logger
}

func New(cfg config.MarketConfig, log *slog.Logger, opts ...gateway.Option) *Client {
	pages := cfg.Pages
	if pages < 1 {
		pages = 1
	}

	return &Client{
		http:       gateway.NewClient(cfg.Timeout, cfg.Retries, log, opts...),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		vsCurrency: cfg.VsCurrency,
		perPage:    cfg.PerPage,
		pages:      pages,
		log:        log,
	}
}

// FetchCoins downloads the top coins by market cap. Any page failing fails
// the whole fetch so the caller never stores a partial snapshot.
func (c *Client) FetchCoins(ctx context.Context) ([]models.Coin, error) {
	const op = "market.Client.FetchCoins"

	coins := make([]models.Coin, 0, c.perPage*c.pages)

	for page := 1; page <= c.pages; page++ {
		var batch []models.Coin
		if err := c.http.Get(ctx, c.pageURL(page), &batch); err != nil {
			return nil, fmt.Errorf("%s: page %d: %w", op, page, err)
		}

		for _, coin := range batch {
			if coin.ID == "" || coin.Symbol == "" || coin.Name == "" {
				c.log.Warn("dropping incomplete market entry", slog.String("id", coin.ID), slog.String("symbol", coin.Symbol))
				continue
			}
			coins = append(coins, coin)
		}

		if len(batch) < c.perPage {
			break
		}
	}

	c.log.Debug("market snapshot fetched", slog.Int("coins", len(coins)))

	return coins, nil
}

func (c *Client) pageURL(page int) string {
	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))

	return c.baseURL + marketsPath + "?" + q.Encode()
}
