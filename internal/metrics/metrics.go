// Package metrics содержит метрики Prometheus сервиса премиум-доступа.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PurchasesCreated количество созданных записей о покупке по типу и источнику (purchase, code).
	PurchasesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "purchases_created_total",
		Help:      "Number of purchase records created.",
	}, []string{"type", "source"})

	// CodeRedemptions результаты активации кодов: accepted или rejected.
	CodeRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "code_redemptions_total",
		Help:      "Redemption code attempts by result.",
	}, []string{"result"})

	// ExpiredFlips записи, переведённые в expired, по пути: read или sweep.
	ExpiredFlips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "expired_flips_total",
		Help:      "Purchase records flipped to expired.",
	}, []string{"path"})

	// Cancellations вызовы отмены, по наличию активных записей.
	Cancellations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "cancellations_total",
		Help:      "Cancel requests by whether anything was active.",
	}, []string{"had_active"})

	// StatusCache попадания и промахи кеша статуса.
	StatusCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "status_cache_total",
		Help:      "Status cache lookups by result.",
	}, []string{"result"})

	// HTTPRequestDuration длительность HTTP-запросов по маршруту.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "premium",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
