// Package metrics owns the Prometheus collectors for botdeck-server and
// serves them in the exposition format negotiated with the scraper.
package metrics

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/botdeck/botdeck/server/internal/store"
)

const namespace = "botdeck"

// Metrics is the set of collectors registered on a private registry.
// All methods are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	entities     *prometheus.GaugeVec
	unresolved   *prometheus.GaugeVec
	loadDuration prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route template, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route template and method.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"route", "method"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_entities",
			Help:      "Entities held in the loaded snapshot, by kind.",
		}, []string{"kind"}),
		unresolved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_unresolved_references",
			Help:      "References that did not resolve to an id at load time, by kind.",
		}, []string{"kind"}),
		loadDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_load_duration_seconds",
			Help:      "Time spent fetching and indexing the snapshot at startup.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.entities,
		m.unresolved,
		m.loadDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every botdeck collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, took time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(route, method).Observe(took.Seconds())
}

// SetSnapshot publishes the stats of the loaded snapshot.
func (m *Metrics) SetSnapshot(st store.Stats, took time.Duration) {
	m.entities.WithLabelValues("bots").Set(float64(st.Bots))
	m.entities.WithLabelValues("workers").Set(float64(st.Workers))
	m.entities.WithLabelValues("logs").Set(float64(st.Logs))
	m.unresolved.WithLabelValues("worker_bot").Set(float64(st.UnresolvedWorkerBots))
	m.unresolved.WithLabelValues("log_bot").Set(float64(st.UnresolvedLogBots))
	m.unresolved.WithLabelValues("log_worker").Set(float64(st.UnresolvedLogWorkers))
	m.loadDuration.Set(took.Seconds())
}

// Handler serves the families gathered from g in the format negotiated from
// the request's Accept header.
func Handler(g prometheus.Gatherer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mfs, err := g.Gather()
		if err != nil {
			slog.Error("metrics: gather failed", "err", err)
			http.Error(w, "error gathering metrics", http.StatusInternalServerError)
			return
		}

		format := expfmt.Negotiate(r.Header)
		w.Header().Set("Content-Type", string(format))
		if err := encode(w, format, mfs); err != nil {
			slog.Warn("metrics: encode failed", "err", err)
		}
	})
}

func encode(w io.Writer, format expfmt.Format, mfs []*dto.MetricFamily) error {
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	if c, ok := enc.(expfmt.Closer); ok {
		return c.Close()
	}
	return nil
}
