// Package purchase реализует HTTP-обработчик записи покупки премиума.
//
// Handler принимает JSON-запрос с типом покупки и необязательным идентификатором
// транзакции магазина, валидирует его, извлекает пользователя из контекста,
// вызывает сервис и возвращает созданную запись со статусом 201.
package purchase

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

// Handler управляет HTTP-запросами на запись покупки.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис премиум-доступа
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики записи покупки.
type Service interface {
	CreatePurchase(ctx context.Context, userID string, req models.NewPurchase) (*models.PurchaseRecord, error)
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
// @Summary Записать покупку премиума
// @Description Создает активную запись о покупке. Месячная покупка действует 30 дней, пожизненная бессрочно.
// @Description Повтор с тем же externalTransactionId возвращает уже записанную покупку, пока она действует.
// @Description Месячная покупка при действующем бессрочном премиуме отклоняется.
// @Tags Premium
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.PurchaseRequest true "Тип покупки"
// @Success 201 {object} models.PurchaseResponse
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Конфликт транзакции или бессрочный премиум уже активен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/premium/purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.purchase"
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

	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		render.Status(r, http.StatusBadRequest)
		if errors.As(err, &verrs) {
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	rec, err := h.service.CreatePurchase(r.Context(), userUID, models.NewPurchase{
		PurchaseType:          models.PurchaseType(req.PurchaseType),
		ExternalTransactionID: req.ExternalTransactionID,
		Amount:                req.Amount,
		Currency:              req.Currency,
	})
	switch {
	case errors.Is(err, premium.ErrInvalidPurchaseType):
		log.Error("invalid purchase type", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid purchaseType"))
		return
	case errors.Is(err, premium.ErrTransactionOwnedByOtherUser):
		log.Error("external transaction belongs to another user", sl.Err(err))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("external transaction already recorded"))
		return
	case errors.Is(err, premium.ErrTransactionNotActive):
		log.Warn("replay of inactive external transaction", sl.Err(err))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("external transaction is no longer active"))
		return
	case errors.Is(err, premium.ErrLifetimeActive):
		log.Warn("monthly purchase over lifetime", sl.Err(err))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("lifetime premium already active"))
		return
	case errors.Is(err, premium.ErrConcurrentPurchase):
		log.Error("concurrent purchase", sl.Err(err))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("another purchase is in progress"))
		return
	case err != nil:
		log.Error("failed to create purchase", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create purchase"))
		return
	}

	log.Info("purchase recorded", slog.String("purchase_id", rec.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, models.PurchaseResponse{
		Success: true,
		Purchase: models.PurchaseInfo{
			ID:           rec.ID,
			PurchaseType: rec.PurchaseType,
			ExpiryDate:   rec.ExpiryDate,
		},
	})
}
