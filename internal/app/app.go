package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/Tonic56/crypto-market-watch/internal/alerts"
	"github.com/Tonic56/crypto-market-watch/internal/config"
	"github.com/Tonic56/crypto-market-watch/internal/gateway/comments"
	"github.com/Tonic56/crypto-market-watch/internal/gateway/market"
	"github.com/Tonic56/crypto-market-watch/internal/gateway/news"
	httphandler "github.com/Tonic56/crypto-market-watch/internal/handler/http"
	"github.com/Tonic56/crypto-market-watch/internal/refresh"
	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/Tonic56/crypto-market-watch/internal/service"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/internal/websocket"
	"github.com/Tonic56/crypto-market-watch/storage/database"
	"github.com/Tonic56/crypto-market-watch/storage/kafka"
	"github.com/Tonic56/crypto-market-watch/storage/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

type App struct {
	cfg             *config.Config
	log             *slog.Logger
	httpServer      *http.Server
	storage         *database.Storage
	redisClient     *goredis.Client
	redisSubscriber *redis.Subscriber
	producer        *kafka.Producer
	wsManager       *websocket.Manager
	stopOnce        sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

func New(log *slog.Logger, cfg *config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())

	storage, err := database.New(cfg.Database, log)
	if err != nil {
		panic(fmt.Errorf("failed to init storage: %w", err))
	}

	usersRepo := repository.NewUsersRepository(storage.DB)
	coinsRepo := repository.NewCoinsRepository(storage.DB)
	favoritesRepo := repository.NewFavoritesRepository(storage.DB)
	alertsRepo := repository.NewAlertsRepository(storage.DB)

	issuer := session.NewIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	wsManager := websocket.NewManager(log)
	notifier := alerts.MultiNotifier{alerts.NewLogNotifier(log)}

	a := &App{
		log:       log,
		cfg:       cfg,
		storage:   storage,
		wsManager: wsManager,
		ctx:       ctx,
		cancel:    cancel,
	}

	// With redis every instance publishes alerts to the bus and each
	// websocket follows its user's channel. Without it alerts stay local.
	if cfg.Redis.Addr != "" {
		a.redisClient = redis.NewClient(cfg.Redis)
		a.redisSubscriber = redis.NewSubscriber(a.redisClient, log)
		wsManager.WithSubscriber(a.redisSubscriber, a.redisSubscriber.Messages)
		notifier = append(notifier, redis.NewPublisher(a.redisClient))
	} else {
		log.Info("redis address not set, delivering alerts in process")
		notifier = append(notifier, wsManager)
	}

	var refreshOpts []refresh.Option
	if len(cfg.Kafka.Brokers) > 0 {
		a.producer = kafka.NewProducer(cfg.Kafka, log)
		refreshOpts = append(refreshOpts, refresh.WithSnapshotSink(a.producer))
	}

	evaluator := alerts.NewEvaluator(alertsRepo, notifier, log)
	refresher := refresh.New(coinsRepo, market.New(cfg.Market, log), evaluator, log, refreshOpts...)

	services := httphandler.Services{
		Users:     service.NewUsersService(usersRepo, issuer, cfg.Security.BcryptCost),
		Coins:     service.NewCoinsService(coinsRepo, favoritesRepo),
		Favorites: service.NewFavoritesService(coinsRepo, favoritesRepo),
		Alerts:    service.NewAlertsService(coinsRepo, alertsRepo),
		News:      service.NewNewsService(news.New(cfg.News, log), favoritesRepo),
		Comments:  service.NewCommentsService(comments.New(cfg.Comments, log)),
	}

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	httpHandler := httphandler.NewHandler(services, coinsRepo, favoritesRepo, refresher, issuer, wsManager, log)
	httpHandler.RegisterRoutes(ginEngine)

	a.httpServer = &http.Server{
		Addr:    net.JoinHostPort("", strconv.FormatUint(uint64(cfg.HTTP.Port), 10)),
		Handler: ginEngine,
	}

	return a
}

func (a *App) Run() error {
	errChan := make(chan error, 1)
	a.log.Info("starting application components...")

	go func() {
		a.log.Info("websocket manager started")
		a.wsManager.Run(a.ctx)
		a.log.Info("websocket manager stopped")
	}()

	go func() {
		if err := a.runHTTP(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	err := <-errChan
	a.log.Warn("shutting down application due to an error", "error", err)

	a.Stop()
	return err
}

// Stop is safe to call more than once.
func (a *App) Stop() {
	a.stopOnce.Do(a.stop)
}

func (a *App) stop() {
	a.log.Info("stopping application components gracefully...")

	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.HTTP.Timeout)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("failed to gracefully shutdown HTTP server", "error", err)
	} else {
		a.log.Info("HTTP server stopped")
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("failed to close kafka producer", "error", err)
		}
	}

	if a.redisSubscriber != nil {
		a.redisSubscriber.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("failed to close redis client", "error", err)
		}
	}

	if err := a.storage.Stop(); err != nil {
		a.log.Error("failed to stop storage", "error", err)
	} else {
		a.log.Info("database connection closed")
	}
}

func (a *App) runHTTP() error {
	const op = "app.runHTTP"

	a.log.Info("HTTP server is running", "addr", a.httpServer.Addr)

	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
