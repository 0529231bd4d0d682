package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Tonic56/crypto-market-watch/internal/handler/middleware"
	"github.com/Tonic56/crypto-market-watch/internal/refresh"
	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/Tonic56/crypto-market-watch/internal/service"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/internal/websocket"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/gin-gonic/gin"
	gorilla_ws "github.com/gorilla/websocket"
)

// Refresher runs the cached-then-fresh cycle behind the coin screens.
type Refresher interface {
	Refresh(ctx context.Context, sess session.Session, read refresh.ReadFunc) refresh.View
}

type Services struct {
	Users     service.UsersService
	Coins     service.CoinsService
	Favorites service.FavoritesService
	Alerts    service.AlertsService
	News      service.NewsService
	Comments  service.CommentsService
}

type Handler struct {
	services      Services
	coinsRepo     repository.CoinsRepository
	favoritesRepo repository.FavoritesRepository
	refresher     Refresher
	issuer        *session.Issuer
	wsManager     *websocket.Manager
	log           *slog.Logger
	upgrader      gorilla_ws.Upgrader
}

func NewHandler(
	services Services,
	coinsRepo repository.CoinsRepository,
	favoritesRepo repository.FavoritesRepository,
	refresher Refresher,
	issuer *session.Issuer,
	wsManager *websocket.Manager,
	log *slog.Logger,
) *Handler {
	return &Handler{
		services:      services,
		coinsRepo:     coinsRepo,
		favoritesRepo: favoritesRepo,
		refresher:     refresher,
		issuer:        issuer,
		wsManager:     wsManager,
		log:           log,
		upgrader: gorilla_ws.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1", middleware.SessionMiddleware(h.issuer, h.log))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/external", h.signInExternal)
		}

		api.GET("/profile", middleware.RequireSession(), h.getUserProfile)

		coins := api.Group("/coins")
		{
			coins.GET("", h.listCoins)
			coins.GET("/:id", h.getCoin)
			coins.POST("/:id/favorite", middleware.RequireSession(), h.setFavoriteCoin(true))
			coins.DELETE("/:id/favorite", middleware.RequireSession(), h.setFavoriteCoin(false))
			coins.PATCH("/:id/favorite", middleware.RequireSession(), h.toggleFavoriteCoin)
		}

		api.GET("/favorites/coins", middleware.RequireSession(), h.listFavoriteCoins)

		alerts := api.Group("/alerts", middleware.RequireSession())
		{
			alerts.GET("", h.listAlerts)
			alerts.POST("", h.createAlert)
			alerts.DELETE("/:id", h.deleteAlert)
		}

		news := api.Group("/news")
		{
			news.GET("", h.listNews)
			news.GET("/favorites", middleware.RequireSession(), h.listFavoriteNews)
			news.POST("/:id/favorite", middleware.RequireSession(), h.favoriteNews)
			news.DELETE("/:id/favorite", middleware.RequireSession(), h.unfavoriteNews)
			news.PATCH("/:id/favorite", middleware.RequireSession(), h.toggleFavoriteNews)
			news.GET("/:id/comments", h.listComments)
			news.POST("/:id/comments", middleware.RequireSession(), h.createComment)
		}

		comments := api.Group("/comments", middleware.RequireSession())
		{
			comments.PUT("/:id", h.updateComment)
			comments.DELETE("/:id", h.deleteComment)
		}

		api.GET("/ws", middleware.RequireSession(), h.wsConnect)
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	signIn, err := h.services.Users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "could not register"})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, signIn)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	signIn, err := h.services.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, signIn)
}

type externalRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email" binding:"required"`
	ExternalID string `json:"externalId" binding:"required"`
}

func (h *Handler) signInExternal(c *gin.Context) {
	var req externalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	signIn, err := h.services.Users.SignInExternal(c.Request.Context(), req.Name, req.Email, req.ExternalID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, signIn)
}

func (h *Handler) getUserProfile(c *gin.Context) {
	sess := middleware.Session(c)

	user, err := h.services.Users.GetUserProfile(c.Request.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user profile not found"})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) wsConnect(c *gin.Context) {
	sess := middleware.Session(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := websocket.NewClient(h.wsManager, conn, sess.UserID)
	if !h.wsManager.Register(client) {
		h.log.Warn("ws: manager stopped, rejecting connection", "userID", sess.UserID)
		conn.Close()
		return
	}

	go client.Writer()
	go client.Reader()
}

// fail maps domain errors to a status and logs the unexpected ones.
func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
	}
	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrNotSignedIn):
		return http.StatusUnauthorized, errs.ErrNotSignedIn.Error()
	case errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, errs.ErrInvalidPrice):
		return http.StatusBadRequest, errs.ErrInvalidPrice.Error()
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest, errs.ErrInvalidInput.Error()
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, errs.ErrNotFound.Error()
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, errs.ErrForbidden.Error()
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, errs.ErrAlreadyExists.Error()
	case errors.Is(err, errs.ErrNetworkUnavailable):
		return http.StatusServiceUnavailable, errs.ErrNetworkUnavailable.Error()
	case errors.Is(err, errs.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, errs.ErrStorageUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
