// Package premiumapi собирает HTTP-сервер премиум-доступа.
package premiumapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация OpenAPI-документа для /docs.
	_ "github.com/magabrotheeeer/budget-premium/docs"
	"github.com/magabrotheeeer/budget-premium/internal/config"
	"github.com/magabrotheeeer/budget-premium/internal/http/handlers/health"
	"github.com/magabrotheeeer/budget-premium/internal/http/handlers/premium/cancel"
	"github.com/magabrotheeeer/budget-premium/internal/http/handlers/premium/purchase"
	"github.com/magabrotheeeer/budget-premium/internal/http/handlers/premium/status"
	"github.com/magabrotheeeer/budget-premium/internal/http/handlers/premium/verifycode"
	"github.com/magabrotheeeer/budget-premium/internal/http/middlewarectx"
	premiumservice "github.com/magabrotheeeer/budget-premium/internal/services/premium"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	cfg config.HTTPServer,
	premiumService *premiumservice.Service,
	tokens middlewarectx.TokenParser,
	checker health.Checker,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware,
		corsHandler(cfg),
	)

	r.Get("/health", health.New(logger, checker).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	limiter := middlewarectx.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Все маршруты премиума требуют сессию
	r.Route("/api/premium", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(tokens, logger))
		r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
		r.Post("/purchase", purchase.New(logger, premiumService).ServeHTTP)
		r.Get("/status", status.New(logger, premiumService).ServeHTTP)
		r.Post("/verify-code", verifycode.New(logger, premiumService).ServeHTTP)
		r.Delete("/cancel", cancel.New(logger, premiumService).ServeHTTP)
	})
}

func corsHandler(cfg config.HTTPServer) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}).Handler
}
