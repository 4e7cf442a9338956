package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// LatencyBuckets cover handler calls, which are expected to finish well
	// under a millisecond.
	LatencyBuckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1}

	// CountBuckets cover small item counts such as markers per reply.
	CountBuckets = []float64{0, 1, 2, 4, 8, 16, 32, 64}
)

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ComponentRegistry creates collectors under a shared namespace and subsystem
// and registers them with one registerer.
type ComponentRegistry struct {
	namespace  string
	subsystem  string
	registerer prometheus.Registerer
}

// NewComponentRegistry creates a component registry backed by reg.
func NewComponentRegistry(reg prometheus.Registerer, namespace, subsystem string) *ComponentRegistry {
	return &ComponentRegistry{
		namespace:  namespace,
		subsystem:  subsystem,
		registerer: reg,
	}
}

func (r *ComponentRegistry) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	c := prometheus.NewCounter(opts)
	r.registerer.MustRegister(c)
	return c
}

func (r *ComponentRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	c := prometheus.NewCounterVec(opts, labels)
	r.registerer.MustRegister(c)
	return c
}

func (r *ComponentRegistry) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	g := prometheus.NewGauge(opts)
	r.registerer.MustRegister(g)
	return g
}

func (r *ComponentRegistry) NewHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	h := prometheus.NewHistogramVec(opts, labels)
	r.registerer.MustRegister(h)
	return h
}
