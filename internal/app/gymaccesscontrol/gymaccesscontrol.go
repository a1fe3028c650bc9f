package gymaccesscontrol

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/gym-access-control/internal/cache"
	"github.com/magabrotheeeer/gym-access-control/internal/config"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/jwt"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/motivation"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/gym-access-control/internal/migrations"
	cardservice "github.com/magabrotheeeer/gym-access-control/internal/services/card"
	entryservice "github.com/magabrotheeeer/gym-access-control/internal/services/entry"
	purchaseservice "github.com/magabrotheeeer/gym-access-control/internal/services/onetimeentry"
	staffservice "github.com/magabrotheeeer/gym-access-control/internal/services/staff"
	subservice "github.com/magabrotheeeer/gym-access-control/internal/services/subscription"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// App собирает все зависимости сервиса контроля доступа и владеет
// жизненным циклом HTTP-сервера.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

// New создает приложение: хранилище с миграциями, Redis, RabbitMQ,
// бизнес-сервисы и HTTP-сервер с маршрутами.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetEntryStatusQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(rabbitCh)

	tokenMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	picker := motivation.New(rand.NewSource(time.Now().UnixNano()))

	cardService := cardservice.NewCardService(db, cacheRedis, logger)
	svcs := Services{
		Entry:        entryservice.NewEntryValidationService(db, publisher, picker, logger),
		Subscription: subservice.NewLifecycleService(db, cacheRedis, logger),
		Card:         cardService,
		Purchase:     purchaseservice.NewPurchaseService(db, cardService, cacheRedis, logger),
		Auth:         staffservice.NewAuthService(db, tokenMaker, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svcs, tokenMaker)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
		rabbitCh:   rabbitCh,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста или
// фатальной ошибки сервера. При завершении выполняет graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.rabbitCh.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq channel", slog.String("error", closeErr.Error()))
		}
		if closeErr := a.rabbitConn.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq connection", slog.String("error", closeErr.Error()))
		}
		a.db.DB.Close()
		return err
	}
}
