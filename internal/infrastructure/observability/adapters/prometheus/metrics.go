// Package prometheus records metrics into a private Prometheus registry and
// writes them to a node_exporter textfile when the build finishes.
package prometheus

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
)

// sizeBuckets: 1KB, 10KB, 100KB, 1MB, 10MB, 100MB
var sizeBuckets = []float64{1024, 10240, 102400, 1048576, 10485760, 104857600}

type vec struct {
	collector prometheus.Collector
	labels    []string
}

// registry is shared by every Metrics derived through WithTags
type registry struct {
	mu        sync.Mutex
	reg       *prometheus.Registry
	namespace string
	textfile  string
	vecs      map[string]*vec
}

// Metrics implements ports.Metrics.
//
// Vectors are created on first use of a name and their label set is fixed
// then: later calls fill missing labels with "" and drop unknown ones.
type Metrics struct {
	r    *registry
	tags map[string]string
}

// NewMetrics creates a recorder whose metric names are prefixed with namespace.
// textfile may be empty, in which case Flush is a no-op.
func NewMetrics(namespace, textfile string) *Metrics {
	return &Metrics{
		r: &registry{
			reg:       prometheus.NewRegistry(),
			namespace: sanitize(namespace),
			textfile:  textfile,
			vecs:      make(map[string]*vec),
		},
		tags: map[string]string{},
	}
}

// Registry exposes the underlying registry for gathering and tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.r.reg
}

// IncrementCounter increments a counter metric by 1
func (m *Metrics) IncrementCounter(name string, tags map[string]string) {
	full := m.r.fullName(name) + "_total"
	v, err := m.r.get(full, m.merge(tags), func(labels []string) prometheus.Collector {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: full, Help: "Counter " + name}, labels)
	})
	if err != nil {
		return
	}
	v.collector.(*prometheus.CounterVec).WithLabelValues(v.values(m.merge(tags))...).Inc()
}

// RecordHistogram records a value in a histogram distribution
func (m *Metrics) RecordHistogram(name string, value float64, tags map[string]string) {
	full := m.r.fullName(name)
	buckets := prometheus.DefBuckets
	if strings.Contains(name, "size") || strings.Contains(name, "bytes") {
		buckets = sizeBuckets
	}
	v, err := m.r.get(full, m.merge(tags), func(labels []string) prometheus.Collector {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: full, Help: "Histogram " + name, Buckets: buckets}, labels)
	})
	if err != nil {
		return
	}
	v.collector.(*prometheus.HistogramVec).WithLabelValues(v.values(m.merge(tags))...).Observe(value)
}

// RecordGauge records a point-in-time measurement
func (m *Metrics) RecordGauge(name string, value float64, tags map[string]string) {
	full := m.r.fullName(name)
	v, err := m.r.get(full, m.merge(tags), func(labels []string) prometheus.Collector {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: full, Help: "Gauge " + name}, labels)
	})
	if err != nil {
		return
	}
	v.collector.(*prometheus.GaugeVec).WithLabelValues(v.values(m.merge(tags))...).Set(value)
}

// WithTags returns a new Metrics instance with additional default tags
func (m *Metrics) WithTags(tags map[string]string) ports.Metrics {
	return &Metrics{r: m.r, tags: m.merge(tags)}
}

// Flush writes the registry to the configured textfile
func (m *Metrics) Flush() error {
	if m.r.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.r.textfile, m.r.reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) merge(tags map[string]string) map[string]string {
	out := make(map[string]string, len(m.tags)+len(tags))
	for k, v := range m.tags {
		out[sanitize(k)] = v
	}
	for k, v := range tags {
		out[sanitize(k)] = v
	}
	return out
}

func (r *registry) fullName(name string) string {
	if r.namespace == "" {
		return sanitize(name)
	}
	return r.namespace + "_" + sanitize(name)
}

func (r *registry) get(name string, tags map[string]string, create func([]string) prometheus.Collector) (*vec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.vecs[name]; ok {
		return v, nil
	}

	labels := make([]string, 0, len(tags))
	for k := range tags {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	v := &vec{collector: create(labels), labels: labels}
	if err := r.reg.Register(v.collector); err != nil {
		return nil, err
	}
	r.vecs[name] = v
	return v, nil
}

func (v *vec) values(tags map[string]string) []string {
	values := make([]string, len(v.labels))
	for i, l := range v.labels {
		values[i] = tags[l]
	}
	return values
}

func sanitize(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
