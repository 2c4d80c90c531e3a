package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/budget-premium/internal/entitlement"
	"github.com/magabrotheeeer/budget-premium/internal/premiumclient"
)

func newManager(t *testing.T, handler http.HandlerFunc) *entitlement.Manager {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m, err := entitlement.NewManager(
		entitlement.NewFileStore(filepath.Join(t.TempDir(), "budget.json")),
		premiumclient.New(srv.URL, "token", time.Second),
		entitlement.FallbackCodes{Monthly: "easy2", Lifetime: "budgetforever"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)
	return m
}

func TestRun_Usage(t *testing.T) {
	m := newManager(t, http.NotFound)

	for _, args := range [][]string{
		nil,
		{"unknown"},
		{"apply-code"},
		{"purchase", "-type", "weekly"},
		{"purchase", "-bogus"},
	} {
		err := run(context.Background(), m, args, io.Discard)
		assert.True(t, errors.Is(err, errUsage), "args %v", args)
	}
}

func TestRun_StatusShowsTrial(t *testing.T) {
	m := newManager(t, http.NotFound)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), m, []string{"status"}, &out))

	assert.Contains(t, out.String(), "kind:      trial")
	assert.Contains(t, out.String(), "ends:")
}

func TestRun_ApplyCodeServerDown(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), m, []string{"apply-code", " BudgetForever"}, &out))

	assert.Contains(t, out.String(), "code accepted")
	assert.Contains(t, out.String(), "kind:      lifetime")
}

func TestRun_ApplyCodeRejected(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid code"}`))
	})
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), m, []string{"apply-code", "easy2"}, &out))

	assert.Contains(t, out.String(), "code rejected")
	assert.Equal(t, entitlement.KindTrial, m.Status().Kind)
}

func TestRun_PurchaseWithTransaction(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"purchase":{"id":"p-1","purchaseType":"lifetime","expiryDate":null}}`))
	})
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), m, []string{"purchase", "-type", "lifetime", "-tx", "tx-1"}, &out))

	assert.Contains(t, out.String(), "kind:      lifetime")
	assert.Contains(t, out.String(), "source:    store subscription")
}

func TestRun_CancelFailurePropagates(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := run(context.Background(), m, []string{"cancel"}, io.Discard)

	require.Error(t, err)
	assert.Equal(t, entitlement.KindTrial, m.Status().Kind)
}

func TestRun_SyncKeepsTrial(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isPremium":false,"type":"none","expiryDate":null}`))
	})
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), m, []string{"sync"}, &out))

	assert.Contains(t, out.String(), "kind:      trial")
}
