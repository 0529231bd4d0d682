package comments

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/config"
	"github.com/Tonic56/crypto-market-watch/internal/gateway"
	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
)

const resource = "comments"

// Client talks to the hosted comments backend. Comment ids are assigned by
// the backend.
type Client struct {
	http    *gateway.Client
	baseURL string
	log     *slog.Logger
}

func New(cfg config.CommentsConfig, log *slog.Logger, opts ...gateway.Option) *Client {
	return &Client{
		http:    gateway.NewClient(cfg.Timeout, cfg.Retries, log, opts...),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		log:     log,
	}
}

// List returns the comments of one article. The backend answers 404 when a
// filter matches nothing, which is an empty list here.
func (c *Client) List(ctx context.Context, articleID string) ([]models.Comment, error) {
	const op = "comments.Client.List"

	q := url.Values{}
	q.Set("newsId", articleID)

	comments := make([]models.Comment, 0)
	if err := c.http.Get(ctx, c.collectionURL()+"?"+q.Encode(), &comments); err != nil {
		if gateway.IsStatus(err, http.StatusNotFound) {
			return []models.Comment{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Comment, error) {
	const op = "comments.Client.Get"

	var comment models.Comment
	if err := c.http.Get(ctx, c.itemURL(id), &comment); err != nil {
		if gateway.IsStatus(err, http.StatusNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &comment, nil
}

func (c *Client) Create(ctx context.Context, comment models.Comment) (*models.Comment, error) {
	const op = "comments.Client.Create"

	comment.ID = ""

	var created models.Comment
	if err := c.http.Do(ctx, http.MethodPost, c.collectionURL(), comment, &created); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &created, nil
}

func (c *Client) Update(ctx context.Context, id string, comment models.Comment) (*models.Comment, error) {
	const op = "comments.Client.Update"

	comment.ID = id

	var updated models.Comment
	if err := c.http.Do(ctx, http.MethodPut, c.itemURL(id), comment, &updated); err != nil {
		if gateway.IsStatus(err, http.StatusNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &updated, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	const op = "comments.Client.Delete"

	if err := c.http.Do(ctx, http.MethodDelete, c.itemURL(id), nil, nil); err != nil {
		if gateway.IsStatus(err, http.StatusNotFound) {
			return errs.ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) collectionURL() string {
	return c.baseURL + "/" + resource
}

func (c *Client) itemURL(id string) string {
	return c.collectionURL() + "/" + url.PathEscape(id)
}
