package noop

import "github.com/jimcal/jamstack-cms/internal/application/ports"

// Metrics discards everything it is given
type Metrics struct{}

// NewMetrics creates a no-op metrics recorder
func NewMetrics() ports.Metrics {
	return Metrics{}
}

func (Metrics) IncrementCounter(string, map[string]string) {}

func (Metrics) RecordHistogram(string, float64, map[string]string) {}

func (Metrics) RecordGauge(string, float64, map[string]string) {}

func (m Metrics) WithTags(map[string]string) ports.Metrics { return m }
