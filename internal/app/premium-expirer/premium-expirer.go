// Package premiumexpirer содержит фоновое приложение, которое переводит истёкшие
// покупки в expired и рассылает напоминания об окончании месячного доступа.
package premiumexpirer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/budget-premium/internal/cache"
	"github.com/magabrotheeeer/budget-premium/internal/config"
	"github.com/magabrotheeeer/budget-premium/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/budget-premium/internal/services/scheduler"
	"github.com/magabrotheeeer/budget-premium/internal/storage"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	cfg              config.Scheduler
	db               *storage.Storage
	cache            *cache.Cache
	broker           *rabbitmq.Broker
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *storage.Storage) error {
	for range 10 {
		err := storage.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
// Схему создает premium-api, здесь только ожидается её готовность.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	app := &App{
		cfg:    cfg.Scheduler,
		db:     db,
		logger: logger,
	}

	if err := waitForDB(ctx, db); err != nil {
		app.close()
		return nil, err
	}

	var invalidator schedulerservice.Invalidator
	if cfg.AddressRedis != "" {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("cache not initialized: %w", err)
		}
		invalidator = app.cache
	}

	var publisher schedulerservice.Publisher
	if cfg.RabbitMQURL != "" {
		app.broker, err = rabbitmq.Open(cfg.RabbitMQ)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		publisher = app.broker
	} else {
		logger.Warn("rabbitmq url is empty, expiry reminders disabled")
	}

	app.schedulerService = schedulerservice.NewService(db, invalidator, publisher, cfg.ReminderWindow, logger)
	return app, nil
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.schedulerService.RunExpirer(ctx, a.cfg.ExpireInterval)
	}()
	if a.broker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.schedulerService.RunReminder(ctx, a.cfg.ReminderInterval)
		}()
	}

	<-ctx.Done()
	wg.Wait()

	a.logger.Info("shutting down premium expirer")
	a.close()
	return nil
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
