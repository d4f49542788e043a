package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralfinder_search_requests_total",
			Help: "Total number of provider search calls executed",
		},
		[]string{"provider", "status"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viralfinder_search_duration_seconds",
			Help:    "Duration of provider search calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	SearchResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralfinder_search_results_total",
			Help: "Total number of raw results returned by providers",
		},
		[]string{"provider"},
	)

	CredentialFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralfinder_credential_failures_total",
			Help: "Total number of credential slot failures recorded",
		},
		[]string{"category"},
	)

	ResolveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralfinder_resolve_total",
			Help: "Engagement resolutions by winning strategy and platform",
		},
		[]string{"strategy", "platform"},
	)

	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viralfinder_resolve_duration_seconds",
			Help:    "Duration of full engagement resolutions in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"platform"},
	)
)

// RecordSearch updates the search metrics for one provider call.
func RecordSearch(provider string, resultCount int, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SearchRequestsTotal.WithLabelValues(provider, status).Inc()
	SearchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if err == nil {
		SearchResultsTotal.WithLabelValues(provider).Add(float64(resultCount))
	}
}

// RecordResolve updates the resolution metrics for one post URL.
func RecordResolve(strategy, platform string, elapsed time.Duration) {
	ResolveTotal.WithLabelValues(strategy, platform).Inc()
	ResolveDuration.WithLabelValues(platform).Observe(elapsed.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
