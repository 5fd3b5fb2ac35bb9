package query

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache behaviour per query name.
type Metrics struct {
	fetches   *prometheus.CounterVec
	hits      *prometheus.CounterVec
	coalesced *prometheus.CounterVec
	pollers   prometheus.Gauge
}

// NewMetrics creates the cache collectors and registers them on reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heyfriend",
			Subsystem: "query",
			Name:      "fetches_total",
			Help:      "Backend fetches by query and outcome.",
		}, []string{"query", "result"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heyfriend",
			Subsystem: "query",
			Name:      "cache_hits_total",
			Help:      "Reads answered from cache, by freshness.",
		}, []string{"query", "freshness"}),
		coalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heyfriend",
			Subsystem: "query",
			Name:      "coalesced_total",
			Help:      "Fetch requests that joined one already in flight.",
		}, []string{"query"}),
		pollers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heyfriend",
			Subsystem: "query",
			Name:      "active_pollers",
			Help:      "Keys currently polled on a timer.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.hits, m.coalesced, m.pollers)
	}
	return m
}

func (m *Metrics) fetched(name string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetches.WithLabelValues(name, result).Inc()
}

func (m *Metrics) hit(name string, fresh bool) {
	if m == nil {
		return
	}
	freshness := "fresh"
	if !fresh {
		freshness = "stale"
	}
	m.hits.WithLabelValues(name, freshness).Inc()
}

func (m *Metrics) joined(name string) {
	if m == nil {
		return
	}
	m.coalesced.WithLabelValues(name).Inc()
}

func (m *Metrics) pollerDelta(d float64) {
	if m == nil {
		return
	}
	m.pollers.Add(d)
}
