// Command budget-client управляет статусом премиума на устройстве из командной строки.
//
//	budget-client status
//	budget-client apply-code <code>
//	budget-client purchase -type monthly|lifetime [-tx id]
//	budget-client cancel
//	budget-client sync
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/budget-premium/internal/config"
	"github.com/magabrotheeeer/budget-premium/internal/entitlement"
	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
	"github.com/magabrotheeeer/budget-premium/internal/premiumclient"
)

func main() {
	cfg := config.MustLoadClient()
	logger := sl.NewLogger(cfg.Env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := premiumclient.New(cfg.ServerURL, cfg.SessionToken, cfg.RequestTimeout)
	manager, err := entitlement.NewManager(
		entitlement.NewFileStore(cfg.StatePath),
		client,
		entitlement.FallbackCodes{Monthly: cfg.MonthlyCode, Lifetime: cfg.LifetimeCode},
		logger,
	)
	if err != nil {
		logger.Error("failed to load entitlement state", sl.Err(err))
		os.Exit(1)
	}

	err = run(ctx, manager, os.Args[1:], os.Stdout)
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", sl.Err(err))
		os.Exit(1)
	}
}
