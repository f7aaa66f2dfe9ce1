// Package metrics реализует экспорт метрик в Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики
var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telemetry_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint", "method"},
	)

	// ReadingsReceived количество принятых показаний
	ReadingsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_readings_received_total",
			Help: "Total number of sensor readings ingested",
		},
	)

	// AlertsEmitted количество отправленных оповещений о превышении порога
	AlertsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_alerts_emitted_total",
			Help: "Total number of threshold alerts emitted",
		},
	)

	// AuthFailures количество отклоненных аутентификаций
	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_auth_failures_total",
			Help: "Total number of rejected authentication attempts",
		},
	)

	// CurrentThreshold текущее значение порога оповещения
	CurrentThreshold = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetry_alert_threshold",
			Help: "Current alert threshold value",
		},
	)

	// ForecastDuration время вычисления прогноза
	ForecastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetry_forecast_duration_seconds",
			Help:    "Forecast computation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 2},
		},
	)

	// ForecastFallbacks количество деградаций прогноза до оконной стратегии
	ForecastFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_forecast_fallbacks_total",
			Help: "Total number of trend forecasts degraded to window average",
		},
	)

	// CacheHits попадания в кэш
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses промахи кэша
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// ActiveGoroutines количество активных горутин
	ActiveGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetry_active_goroutines",
			Help: "Number of active goroutines",
		},
	)
)
