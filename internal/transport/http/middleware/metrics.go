package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики HTTP-слоя в реестре по умолчанию; их отдаёт promhttp на /metrics.
// Метка route — шаблон маршрута chi (не сырой путь), чтобы кардинальность
// не росла с числом уникальных URL.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth_service",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Число обработанных HTTP-запросов.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "auth_service",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Длительность обработки HTTP-запроса.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Metrics считает запросы и их длительность. Шаблон маршрута берётся из
// RouteContext после обработки: к этому моменту chi уже сматчил путь.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)
			dur := time.Since(start)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			labels := []string{r.Method, route, strconv.Itoa(status)}

			httpRequestsTotal.WithLabelValues(labels...).Inc()
			httpRequestDuration.WithLabelValues(labels...).Observe(dur.Seconds())
		})
	}
}
