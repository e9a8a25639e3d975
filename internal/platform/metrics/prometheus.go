package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/5olen-tripshare/accommodation-api/internal/platform/logger"
)

// Manager holds the custom Prometheus metrics for the service.
type Manager struct {
	Registry                   *prometheus.Registry
	AccommodationsCreatedTotal prometheus.Counter
	AccommodationUpdatesTotal  prometheus.Counter
	AccommodationDeletesTotal  prometheus.Counter
	HTTPErrorsTotal            *prometheus.CounterVec
	HTTPRequestLatency         *prometheus.HistogramVec
}

// NewManager initializes and registers the service metrics.
func NewManager(serviceName string) *Manager {
	registry := prometheus.NewRegistry()

	accommodationsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "accommodations_created_total",
		Help:      "Total number of accommodations created.",
	})
	accommodationUpdatesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "accommodation_updates_total",
		Help:      "Total number of accommodation updates (full and partial).",
	})
	accommodationDeletesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "accommodation_deletes_total",
		Help:      "Total number of accommodations deleted.",
	})
	httpErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "http_errors_total",
		Help:      "Total number of HTTP error responses by route and status.",
	}, []string{"route", "status"})
	httpRequestLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "http_request_latency_seconds",
		Help:      "Latency of HTTP requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		accommodationsCreatedTotal,
		accommodationUpdatesTotal,
		accommodationDeletesTotal,
		httpErrorsTotal,
		httpRequestLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:                   registry,
		AccommodationsCreatedTotal: accommodationsCreatedTotal,
		AccommodationUpdatesTotal:  accommodationUpdatesTotal,
		AccommodationDeletesTotal:  accommodationDeletesTotal,
		HTTPErrorsTotal:            httpErrorsTotal,
		HTTPRequestLatency:         httpRequestLatency,
	}
}

// StartMetricsServer starts an HTTP server exposing the registry on /metrics.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
