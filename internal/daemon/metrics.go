package daemon

import (
	"context"
	"path"
	"time"

	"github.com/heyfriend/heyfriend/internal/bus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Metrics holds the daemon's Prometheus registry and collectors.
type Metrics struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	events   *prometheus.CounterVec
	pruned   *prometheus.CounterVec
}

// NewMetrics creates a private registry with process and Go runtime
// collectors plus the daemon's own.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heyfriend",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "RPC calls by method and status code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heyfriend",
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "RPC handling time by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heyfriend",
			Subsystem: "backend",
			Name:      "events_total",
			Help:      "Domain events emitted by the backend, by kind.",
		}, []string{"kind"}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heyfriend",
			Subsystem: "janitor",
			Name:      "pruned_total",
			Help:      "Blobs and bytes removed by the janitor.",
		}, []string{"unit"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.events, m.pruned,
	)
	return m
}

// UnaryInterceptor records call counts and latency. It expects errors that
// already carry a gRPC status.
func (m *Metrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		method := path.Base(info.FullMethod)
		m.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(method, status.Code(err).String()).Inc()
		return resp, err
	}
}

// WatchEvents counts backend.* events published on b until the returned
// function is called.
func (m *Metrics) WatchEvents(b *bus.Bus) func() {
	ch, unsub := b.Subscribe("backend.", 64)
	go func() {
		for evt := range ch {
			m.events.WithLabelValues(evt.Kind).Inc()
		}
	}()
	return unsub
}

func (m *Metrics) prunedBlobs(blobs, bytes int64) {
	m.pruned.WithLabelValues("blobs").Add(float64(blobs))
	m.pruned.WithLabelValues("bytes").Add(float64(bytes))
}
