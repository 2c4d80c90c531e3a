// Package premiumclient реализует HTTP-клиент API премиум-доступа.
// Каждая ошибка классифицируется как явный отказ сервера или транспортный сбой.
package premiumclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/budget-premium/internal/models"
)

const maxErrorBody = 4 << 10

// Client клиент API премиум-доступа с сессионным токеном.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New создаёт новый клиент. Пустой token означает, что пользователь не вошёл.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Redemption результат активации кода.
type Redemption struct {
	Outcome     Outcome
	PremiumType models.PurchaseType
	ExpiryDate  *time.Time
	Err         error
}

// VerifyCode отправляет код на сервер как есть.
func (c *Client) VerifyCode(ctx context.Context, code string) Redemption {
	var resp models.VerifyCodeResponse
	err := c.do(ctx, http.MethodPost, "/api/premium/verify-code", models.VerifyCodeRequest{Code: code}, &resp)
	if err == nil && !resp.Success {
		err = &Error{Outcome: OutcomeRejected, StatusCode: http.StatusOK, Message: "success is false"}
	}
	if err != nil {
		return Redemption{Outcome: OutcomeOf(err), Err: err}
	}
	return Redemption{
		Outcome:     OutcomeOK,
		PremiumType: resp.PremiumType,
		ExpiryDate:  resp.ExpiryDate,
	}
}

// Purchase записывает покупку на сервере.
func (c *Client) Purchase(ctx context.Context, purchaseType models.PurchaseType, externalTransactionID *string) (*models.PurchaseInfo, error) {
	const op = "premiumclient.Purchase"
	var resp models.PurchaseResponse
	err := c.do(ctx, http.MethodPost, "/api/premium/purchase", models.PurchaseRequest{
		PurchaseType:          string(purchaseType),
		ExternalTransactionID: externalTransactionID,
	}, &resp)
	if err == nil && !resp.Success {
		err = &Error{Outcome: OutcomeRejected, StatusCode: http.StatusCreated, Message: "success is false"}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp.Purchase, nil
}

// Status запрашивает текущий статус премиума.
func (c *Client) Status(ctx context.Context) (models.PremiumStatus, error) {
	const op = "premiumclient.Status"
	var resp models.PremiumStatus
	if err := c.do(ctx, http.MethodGet, "/api/premium/status", nil, &resp); err != nil {
		return models.PremiumStatus{}, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// Cancel отменяет премиум на сервере.
func (c *Client) Cancel(ctx context.Context) error {
	const op = "premiumclient.Cancel"
	var resp models.SuccessResponse
	err := c.do(ctx, http.MethodDelete, "/api/premium/cancel", nil, &resp)
	if err == nil && !resp.Success {
		err = &Error{Outcome: OutcomeRejected, StatusCode: http.StatusOK, Message: "success is false"}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.token == "" {
		return &Error{Outcome: OutcomeTransportFailure, StatusCode: http.StatusUnauthorized, Err: ErrNoSession}
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return &Error{Outcome: OutcomeTransportFailure, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Outcome: OutcomeTransportFailure, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if outcome := classifyStatus(resp.StatusCode); outcome != OutcomeOK {
		return &Error{Outcome: outcome, StatusCode: resp.StatusCode, Message: errorMessage(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Outcome: OutcomeTransportFailure, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return resp.Status
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return resp.Status
}
