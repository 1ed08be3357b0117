package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MintsTotal counts accepted mint operations by path.
	MintsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_mints_total",
		Help: "Accepted mint operations by entry path.",
	}, []string{"path"})

	// RelaysTotal counts relay submissions by outcome.
	RelaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_relays_total",
		Help: "Minter relay submissions by outcome.",
	}, []string{"outcome"})

	// ForwardsTotal counts meta-transaction executions by scheme and outcome.
	ForwardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_forwards_total",
		Help: "Signed forwarded calls by scheme and outcome.",
	}, []string{"scheme", "outcome"})

	// RequestDuration observes HTTP API request latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "registry_http_request_duration_seconds",
		Help:    "HTTP API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "code"})
)

// Server serves the Prometheus registry on its own listener.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

func NewServer(listenAddr string, log *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start runs the listener until Shutdown is called.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server failed", "err", err)
		}
	}()
	s.log.Info("metrics server started", "listenAddr", s.srv.Addr)
}

// Shutdown drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
