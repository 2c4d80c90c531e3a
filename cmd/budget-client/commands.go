package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/magabrotheeeer/budget-premium/internal/entitlement"
	"github.com/magabrotheeeer/budget-premium/internal/models"
)

const usage = `usage: budget-client <command>

commands:
  status                                   show stored and effective premium status
  apply-code <code>                        redeem a premium code
  purchase -type monthly|lifetime [-tx id] record a purchase
  cancel                                   cancel premium
  sync                                     reconcile with the server`

var errUsage = errors.New("invalid usage")

// Entitlements операции менеджера, которые использует CLI.
type Entitlements interface {
	Status() entitlement.Status
	Effective(now time.Time) entitlement.Status
	ApplyCode(ctx context.Context, code string) (bool, error)
	Purchase(ctx context.Context, purchaseType models.PurchaseType, externalTransactionID *string) (entitlement.Status, error)
	FetchStatus(ctx context.Context) entitlement.Status
	Cancel(ctx context.Context) error
}

func run(ctx context.Context, m Entitlements, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "status":
		printStatus(out, m)
		return nil

	case "apply-code":
		if len(rest) != 1 {
			return errUsage
		}
		ok, err := m.ApplyCode(ctx, rest[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "code rejected")
			return nil
		}
		fmt.Fprintln(out, "code accepted")
		printStatus(out, m)
		return nil

	case "purchase":
		fs := flag.NewFlagSet("purchase", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		purchaseType := fs.String("type", "", "monthly or lifetime")
		txID := fs.String("tx", "", "store transaction id")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		pt := models.PurchaseType(*purchaseType)
		if !pt.Valid() {
			return errUsage
		}
		var externalTransactionID *string
		if *txID != "" {
			externalTransactionID = txID
		}
		if _, err := m.Purchase(ctx, pt, externalTransactionID); err != nil {
			return err
		}
		printStatus(out, m)
		return nil

	case "cancel":
		if err := m.Cancel(ctx); err != nil {
			return err
		}
		printStatus(out, m)
		return nil

	case "sync":
		m.FetchStatus(ctx)
		printStatus(out, m)
		return nil

	default:
		return errUsage
	}
}

func printStatus(out io.Writer, m Entitlements) {
	stored := m.Status()
	effective := m.Effective(time.Now())

	fmt.Fprintf(out, "kind:      %s\n", stored.Kind)
	if effective.Kind != stored.Kind {
		fmt.Fprintf(out, "effective: %s\n", effective.Kind)
	}
	if stored.EndDate != nil {
		fmt.Fprintf(out, "ends:      %s\n", stored.EndDate.Format(time.RFC3339))
	}
	if stored.HasExternalSubscription {
		fmt.Fprintln(out, "source:    store subscription")
	}
}
