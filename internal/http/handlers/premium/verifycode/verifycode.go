// Package verifycode реализует HTTP-обработчик активации премиума по коду.
package verifycode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/budget-premium/internal/http/middlewarectx"
	"github.com/magabrotheeeer/budget-premium/internal/http/response"
	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
	"github.com/magabrotheeeer/budget-premium/internal/models"
	"github.com/magabrotheeeer/budget-premium/internal/services/premium"
)

// Handler управляет HTTP-запросами активации кода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики активации кода.
type Service interface {
	VerifyCode(ctx context.Context, userID, code string) (*models.PurchaseRecord, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Активировать код
// @Description Сравнивает код с известными секретами (с учётом регистра) и создает активную запись.
// @Tags Premium
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.VerifyCodeRequest true "Код активации"
// @Success 200 {object} models.VerifyCodeResponse
// @Failure 400 {object} response.ErrorResponse "Неверный код"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Параллельная покупка"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/premium/verify-code [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.verifycode"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid code"))
		return
	}

	rec, err := h.service.VerifyCode(r.Context(), userUID, req.Code)
	switch {
	case errors.Is(err, premium.ErrInvalidCode):
		// сам код в лог не пишется
		log.Warn("invalid code")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid code"))
		return
	case errors.Is(err, premium.ErrConcurrentPurchase):
		log.Error("concurrent purchase", sl.Err(err))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("another purchase is in progress"))
		return
	case err != nil:
		log.Error("failed to verify code", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not verify code"))
		return
	}

	log.Info("code redeemed", slog.String("purchase_id", rec.ID), slog.String("type", string(rec.PurchaseType)))
	render.JSON(w, r, models.VerifyCodeResponse{
		Success:     true,
		PremiumType: rec.PurchaseType,
		ExpiryDate:  rec.ExpiryDate,
	})
}
