// Package status реализует HTTP-обработчик получения статуса премиума текущего пользователя.
package status

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

// Handler управляет HTTP-запросами статуса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики получения статуса.
type Service interface {
	GetStatus(ctx context.Context, userID string) (models.PremiumStatus, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статус премиума
// @Description Возвращает самую новую активную покупку пользователя. Истёкшая месячная покупка
// @Description переводится в expired во время запроса, и ответ будет "не премиум".
// @Tags Premium
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.PremiumStatus
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/premium/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.status"
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

	status, err := h.service.GetStatus(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get premium status", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get premium status"))
		return
	}

	log.Debug("premium status resolved", slog.Bool("is_premium", status.IsPremium))
	render.JSON(w, r, status)
}
