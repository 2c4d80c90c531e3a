package premiumapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/budget-premium/internal/cache"
	"github.com/magabrotheeeer/budget-premium/internal/config"
	"github.com/magabrotheeeer/budget-premium/internal/lib/jwt"
	"github.com/magabrotheeeer/budget-premium/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
	"github.com/magabrotheeeer/budget-premium/internal/migrations"
	premiumservice "github.com/magabrotheeeer/budget-premium/internal/services/premium"
	"github.com/magabrotheeeer/budget-premium/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер премиум-доступа со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	broker *rabbitmq.Broker
}

// New подключает хранилище, применяет миграции и собирает маршруты.
// Redis и RabbitMQ необязательны: пустой адрес отключает кеш статуса и публикацию событий.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.premiumapi.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
	}

	var statusCache premiumservice.Cache
	if cfg.AddressRedis != "" {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		statusCache = app.cache
	} else {
		logger.Warn("redis address is empty, status cache disabled")
	}

	var publisher premiumservice.Publisher
	if cfg.RabbitMQURL != "" {
		app.broker, err = rabbitmq.Open(cfg.RabbitMQ)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = app.broker
	} else {
		logger.Warn("rabbitmq url is empty, premium events disabled")
	}

	premiumService := premiumservice.NewService(
		db,
		statusCache,
		publisher,
		premiumservice.Codes{Monthly: cfg.MonthlyCode, Lifetime: cfg.LifetimeCode},
		cfg.StatusCacheTTL,
		logger,
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, premiumService,
		jwt.NewVerifier(cfg.JWTSecretKey), db)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
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
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
