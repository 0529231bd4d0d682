package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/alerts"
	"github.com/Tonic56/crypto-market-watch/internal/format"
	"github.com/Tonic56/crypto-market-watch/internal/handler/middleware"
	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/refresh"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/gin-gonic/gin"
)

type coinsResponse struct {
	Phase  refresh.Phase `json:"phase"`
	Notice string        `json:"notice,omitempty"`
	Coins  []models.Coin `json:"coins"`
	Lines  []string      `json:"lines"`
	Alerts alerts.Report `json:"alerts"`
}

func newCoinsResponse(v refresh.View) coinsResponse {
	lines := make([]string, 0, len(v.Coins))
	for _, coin := range v.Coins {
		lines = append(lines, format.CoinLine(coin))
	}

	return coinsResponse{
		Phase:  v.Phase,
		Notice: v.Notice,
		Coins:  v.Coins,
		Lines:  lines,
		Alerts: v.Alerts,
	}
}

func (h *Handler) listCoins(c *gin.Context) {
	read := refresh.AllCoins(h.coinsRepo)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		read = refresh.SearchCoins(h.coinsRepo, q)
	}

	h.renderRefresh(c, read)
}

func (h *Handler) listFavoriteCoins(c *gin.Context) {
	h.renderRefresh(c, refresh.FavoriteCoins(h.favoritesRepo, middleware.Session(c)))
}

// renderRefresh answers with the last view of a refresh cycle. A stale view
// is still a 200; the notice tells the client the data may be old.
func (h *Handler) renderRefresh(c *gin.Context, read refresh.ReadFunc) {
	view := h.refresher.Refresh(c.Request.Context(), middleware.Session(c), read)

	if errors.Is(view.Err, errs.ErrNotSignedIn) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": view.Notice})
		return
	}

	c.JSON(http.StatusOK, newCoinsResponse(view))
}

func (h *Handler) getCoin(c *gin.Context) {
	detail, err := h.services.Coins.GetCoinDetail(c.Request.Context(), middleware.Session(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) setFavoriteCoin(favorite bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.services.Favorites.SetFavoriteCoin(c.Request.Context(), middleware.Session(c), c.Param("id"), favorite); err != nil {
			h.fail(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"favorite": favorite})
	}
}

func (h *Handler) toggleFavoriteCoin(c *gin.Context) {
	favorite, err := h.services.Favorites.ToggleFavoriteCoin(c.Request.Context(), middleware.Session(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

func (h *Handler) listAlerts(c *gin.Context) {
	list, err := h.services.Alerts.ListAlerts(c.Request.Context(), middleware.Session(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

type alertRequest struct {
	CoinID      string `json:"coinId" binding:"required"`
	TargetPrice string `json:"targetPrice"`
}

func (h *Handler) createAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	alert, err := h.services.Alerts.CreateAlert(c.Request.Context(), middleware.Session(c), req.CoinID, req.TargetPrice)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, alert)
}

func (h *Handler) deleteAlert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	if err := h.services.Alerts.DeleteAlert(c.Request.Context(), middleware.Session(c), uint(id)); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) listNews(c *gin.Context) {
	items, err := h.services.News.Fetch(c.Request.Context(), middleware.Session(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) listFavoriteNews(c *gin.Context) {
	saved, err := h.services.Favorites.ListFavoriteNews(c.Request.Context(), middleware.Session(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

type newsFavoriteRequest struct {
	Title    string  `json:"title" binding:"required"`
	URL      string  `json:"url"`
	ImageURL *string `json:"imageUrl"`
	Source   string  `json:"source"`
}

func (h *Handler) favoriteNews(c *gin.Context) {
	article, ok := bindArticle(c)
	if !ok {
		return
	}

	if err := h.services.Favorites.SetFavoriteNews(c.Request.Context(), middleware.Session(c), article, true); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorite": true})
}

func (h *Handler) toggleFavoriteNews(c *gin.Context) {
	article, ok := bindArticle(c)
	if !ok {
		return
	}

	favorite, err := h.services.Favorites.ToggleFavoriteNews(c.Request.Context(), middleware.Session(c), article)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

// bindArticle reads the display fields saved with a news favorite.
func bindArticle(c *gin.Context) (models.NewsArticle, bool) {
	var req newsFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return models.NewsArticle{}, false
	}

	article := models.NewsArticle{
		ID:       c.Param("id"),
		Title:    req.Title,
		URL:      req.URL,
		ImageURL: req.ImageURL,
	}
	if req.Source != "" {
		article.SourceInfo = &models.SourceInfo{Name: req.Source}
	}

	return article, true
}

func (h *Handler) unfavoriteNews(c *gin.Context) {
	article := models.NewsArticle{ID: c.Param("id")}

	if err := h.services.Favorites.SetFavoriteNews(c.Request.Context(), middleware.Session(c), article, false); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorite": false})
}

func (h *Handler) listComments(c *gin.Context) {
	list, err := h.services.Comments.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) createComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := h.services.Comments.Create(c.Request.Context(), middleware.Session(c), c.Param("id"), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) updateComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := h.services.Comments.Update(c.Request.Context(), middleware.Session(c), c.Param("id"), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *Handler) deleteComment(c *gin.Context) {
	if err := h.services.Comments.Delete(c.Request.Context(), middleware.Session(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
