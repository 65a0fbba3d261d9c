package observability

import (
	"fmt"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
)

type flusher interface {
	Flush() error
}

type observability struct {
	config  *config.Config
	logger  ports.Logger
	metrics ports.Metrics
}

// CreateObservability builds the logger and metrics selected by cfg.Adapters
func CreateObservability(cfg *config.Config) (ports.Observability, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	logger, metrics, err := createObservability(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create observability: %w", err)
	}

	return New(cfg, logger, metrics), nil
}

// New wraps an existing logger and metrics pair
func New(cfg *config.Config, logger ports.Logger, metrics ports.Metrics) ports.Observability {
	return &observability{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Components returns logger and metrics without any scoping
func (obs *observability) Components() (ports.Logger, ports.Metrics, error) {
	if obs.logger == nil || obs.metrics == nil {
		return nil, nil, fmt.Errorf("observability not initialized")
	}
	return obs.logger, obs.metrics, nil
}

// ComponentsScoped returns logger and metrics scoped to a specific component
func (obs *observability) ComponentsScoped(component string) (ports.Logger, ports.Metrics, error) {
	if obs.logger == nil || obs.metrics == nil {
		return nil, nil, fmt.Errorf("observability not initialized")
	}

	logger := obs.logger.WithFields(map[string]interface{}{
		"service":   obs.config.ServiceName,
		"version":   obs.config.Version,
		"env":       obs.config.Environment,
		"component": component,
	})
	metrics := obs.metrics.WithTags(map[string]string{
		"component": component,
	})

	return logger, metrics, nil
}

// Flush persists metrics for adapters that buffer them
func (obs *observability) Flush() error {
	if f, ok := obs.metrics.(flusher); ok {
		return f.Flush()
	}
	return nil
}
