// Package metric measures stream networks with prometheus collectors.
package metric

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "stream"

// Metrics holds collectors shared by all networks that use it. Each
// Metrics instance has its own registry.
type Metrics struct {
	registry *prometheus.Registry
	steps    *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	capacity *prometheus.GaugeVec
	runs     *prometheus.HistogramVec
}

// Meter captures counters of a single node.
type Meter struct {
	network string
	node    string
	m       *Metrics
}

// New creates collectors and registers them in a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "steps_total",
			Help:      "Total number of process calls by returned status",
		}, []string{"network", "node", "status"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_produced_total",
			Help:      "Total number of tokens produced by output port",
		}, []string{"network", "node", "port"}),
		capacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "buffer",
			Name:      "capacity_tokens",
			Help:      "Current capacity of output port buffer",
		}, []string{"network", "node", "port"}),
		runs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "run_duration_seconds",
			Help:      "Network run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"network"}),
	}
	m.registry.MustRegister(m.steps, m.tokens, m.capacity, m.runs)
	return m
}

// Registry returns the registry with all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Meter returns a meter for the node of the network.
func (m *Metrics) Meter(network, node string) *Meter {
	return &Meter{network: network, node: node, m: m}
}

// ObserveRun records duration of the network run.
func (m *Metrics) ObserveRun(network string, d time.Duration) {
	m.runs.WithLabelValues(network).Observe(d.Seconds())
}

// WriteText writes all metrics in prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// Step counts a process call that returned status.
func (mt *Meter) Step(status string) {
	mt.m.steps.WithLabelValues(mt.network, mt.node, status).Inc()
}

// Produced adds n tokens produced by the port.
func (mt *Meter) Produced(port string, n int64) {
	if n <= 0 {
		return
	}
	mt.m.tokens.WithLabelValues(mt.network, mt.node, port).Add(float64(n))
}

// Capacity sets the buffer capacity of the port.
func (mt *Meter) Capacity(port string, capacity int) {
	mt.m.capacity.WithLabelValues(mt.network, mt.node, port).Set(float64(capacity))
}
