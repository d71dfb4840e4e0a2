// Package metrics exposes delivery counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"slackhook/internal/domain"
)

var (
	deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slackhook_deliveries_total",
		Help: "Webhook deliveries by response status",
	}, []string{"adapter", "status"})
	deliveryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slackhook_delivery_errors_total",
		Help: "Deliveries that failed (transport error or non-200 status)",
	}, []string{"adapter"})
	deliverySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slackhook_delivery_seconds",
		Help:    "Webhook POST latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"adapter"})
)

func init() {
	prometheus.MustRegister(deliveries, deliveryErrors, deliverySeconds)
}

// Recorder implements domain.DeliveryRecorder on the default registry.
type Recorder struct{}

func (Recorder) RecordDelivery(_ context.Context, d domain.Delivery) {
	status := "error"
	if d.StatusCode != 0 {
		status = strconv.Itoa(d.StatusCode)
	}
	deliveries.WithLabelValues(d.Adapter, status).Inc()
	if !d.OK() {
		deliveryErrors.WithLabelValues(d.Adapter).Inc()
	}
	deliverySeconds.WithLabelValues(d.Adapter).Observe(d.Duration.Seconds())
}

// Start binds listen and serves /metrics until ctx is done. It returns the
// bound address, so a ":0" listen can be discovered. An empty listen is a no-op
// and returns a nil address.
func Start(ctx context.Context, listen string, log *slog.Logger) (net.Addr, error) {
	if listen == "" {
		return nil, nil
	}
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", listen, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if log != nil {
				log.Error("metrics server failed", "err", err)
			}
		}
	}()
	if log != nil {
		log.Info("metrics server listening", "addr", ln.Addr().String())
	}
	return ln.Addr(), nil
}
