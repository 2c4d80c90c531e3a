package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/budget-premium/internal/http/response"
	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
)

// Checker проверяет готовность зависимости, например базы данных.
type Checker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log     *slog.Logger
	checker Checker
}

// New создает Handler. checker может быть nil, тогда проверяется только живость процесса.
func New(log *slog.Logger, checker Checker) *Handler {
	return &Handler{
		log:     log,
		checker: checker,
	}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Tags Health
// @Produce  json
// @Success 200 {object} response.HealthResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	if h.checker != nil {
		if err := h.checker.Ping(r.Context()); err != nil {
			h.log.Error("dependency is not ready", slog.String("op", op), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("storage unavailable"))
			return
		}
	}
	render.JSON(w, r, response.HealthResponse{Status: "ok"})
}
