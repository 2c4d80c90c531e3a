package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	premiumexpirer "github.com/magabrotheeeer/budget-premium/internal/app/premium-expirer"
	"github.com/magabrotheeeer/budget-premium/internal/config"
	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.NewLogger(cfg.Env, os.Stdout)

	logger.Info("starting premium-expirer",
		slog.String("env", cfg.Env),
		slog.Duration("expire_interval", cfg.ExpireInterval),
		slog.Duration("reminder_interval", cfg.ReminderInterval))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := premiumexpirer.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("premium-expirer stopped gracefully")
}
