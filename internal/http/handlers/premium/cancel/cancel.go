// Package cancel реализует HTTP-обработчик отмены премиума.
// Отмена без активных покупок тоже отвечает успехом.
package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/budget-premium/internal/http/middlewarectx"
	"github.com/magabrotheeeer/budget-premium/internal/http/response"
	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
	"github.com/magabrotheeeer/budget-premium/internal/models"
)

// Handler управляет HTTP-запросами отмены.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отмены.
type Service interface {
	CancelSubscription(ctx context.Context, userID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить премиум
// @Description Переводит все активные покупки пользователя в cancelled. Идемпотентна.
// @Tags Premium
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.SuccessResponse
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/premium/cancel [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.cancel"
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

	if err := h.service.CancelSubscription(r.Context(), userUID); err != nil {
		log.Error("failed to cancel premium", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not cancel premium"))
		return
	}

	log.Info("premium cancelled")
	render.JSON(w, r, models.SuccessResponse{Success: true})
}
