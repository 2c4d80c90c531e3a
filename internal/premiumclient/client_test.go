package premiumclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/budget-premium/internal/models"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "token", time.Second)
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestVerifyCode_OK(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/premium/verify-code", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var req models.VerifyCodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "easy2", req.Code)

		reply(w, http.StatusOK, `{"success":true,"premiumType":"monthly","expiryDate":"2026-11-17T12:00:00Z"}`)
	})

	got := c.VerifyCode(context.Background(), "easy2")

	require.NoError(t, got.Err)
	assert.Equal(t, OutcomeOK, got.Outcome)
	assert.Equal(t, models.PurchaseMonthly, got.PremiumType)
	require.NotNil(t, got.ExpiryDate)
	assert.True(t, got.ExpiryDate.Equal(time.Date(2026, 11, 17, 12, 0, 0, 0, time.UTC)))
}

func TestVerifyCode_Classification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Outcome
		message string
	}{
		{"invalid code", http.StatusBadRequest, `{"success":false,"error":"invalid code"}`, OutcomeRejected, "invalid code"},
		{"too many requests", http.StatusTooManyRequests, `{"success":false,"error":"too many requests"}`, OutcomeRejected, "too many requests"},
		{"success false", http.StatusOK, `{"success":false}`, OutcomeRejected, "success is false"},
		{"unauthenticated", http.StatusUnauthorized, `{"success":false,"error":"invalid or expired token"}`, OutcomeTransportFailure, "invalid or expired token"},
		{"forbidden", http.StatusForbidden, ``, OutcomeTransportFailure, "403 Forbidden"},
		{"server error", http.StatusInternalServerError, `oops`, OutcomeTransportFailure, "500 Internal Server Error"},
		{"bad gateway", http.StatusBadGateway, ``, OutcomeTransportFailure, "502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				reply(w, tt.status, tt.body)
			})

			got := c.VerifyCode(context.Background(), "whatever")

			assert.Equal(t, tt.want, got.Outcome)
			var apiErr *Error
			require.ErrorAs(t, got.Err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestVerifyCode_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := New(url, "token", time.Second).VerifyCode(context.Background(), "easy2")

	assert.Equal(t, OutcomeTransportFailure, got.Outcome)
	assert.Error(t, got.Err)
}

func TestVerifyCode_NoSession(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	got := New(srv.URL, "", time.Second).VerifyCode(context.Background(), "easy2")

	assert.Equal(t, OutcomeTransportFailure, got.Outcome)
	assert.ErrorIs(t, got.Err, ErrNoSession)
	assert.False(t, called)
}

func TestVerifyCode_MalformedBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, `<html>`)
	})

	assert.Equal(t, OutcomeTransportFailure, c.VerifyCode(context.Background(), "easy2").Outcome)
}

func TestPurchase(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/premium/purchase", r.URL.Path)
		var req models.PurchaseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "lifetime", req.PurchaseType)
		require.NotNil(t, req.ExternalTransactionID)
		assert.Equal(t, "tx-1", *req.ExternalTransactionID)

		reply(w, http.StatusCreated, `{"success":true,"purchase":{"id":"p-1","purchaseType":"lifetime","expiryDate":null}}`)
	})

	txID := "tx-1"
	info, err := c.Purchase(context.Background(), models.PurchaseLifetime, &txID)

	require.NoError(t, err)
	assert.Equal(t, "p-1", info.ID)
	assert.Equal(t, models.PurchaseLifetime, info.PurchaseType)
	assert.Nil(t, info.ExpiryDate)
}

func TestPurchase_Conflict(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusConflict, `{"success":false,"error":"external transaction already recorded"}`)
	})

	_, err := c.Purchase(context.Background(), models.PurchaseLifetime, nil)

	require.Error(t, err)
	assert.Equal(t, OutcomeRejected, OutcomeOf(err))
}

func TestStatus(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/premium/status", r.URL.Path)
		reply(w, http.StatusOK, `{"isPremium":false,"type":"none","expiryDate":null}`)
	})

	status, err := c.Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.NotPremium(), status)
}

func TestCancel(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/premium/cancel", r.URL.Path)
		reply(w, http.StatusOK, `{"success":true}`)
	})

	assert.NoError(t, c.Cancel(context.Background()))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeOK, OutcomeOf(nil))
	assert.Equal(t, OutcomeTransportFailure, OutcomeOf(errors.New("boom")))
	assert.Equal(t, OutcomeRejected, OutcomeOf(&Error{Outcome: OutcomeRejected}))
	assert.Equal(t, "transport_failure", OutcomeTransportFailure.String())
}
