package observability

import (
	"fmt"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
	logrusAdapter "github.com/jimcal/jamstack-cms/internal/infrastructure/observability/adapters/logrus"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/observability/adapters/noop"
	promAdapter "github.com/jimcal/jamstack-cms/internal/infrastructure/observability/adapters/prometheus"
)

func createObservability(cfg *config.Config) (ports.Logger, ports.Metrics, error) {
	var logger ports.Logger
	switch cfg.Adapters.Logger {
	case "logrus", "":
		logger = logrusAdapter.NewLogger(cfg.LogLevel, cfg.Observability.LogFormat)
	default:
		return nil, nil, fmt.Errorf("unsupported logger adapter: %s", cfg.Adapters.Logger)
	}

	var metrics ports.Metrics
	switch cfg.Adapters.Metrics {
	case "prometheus":
		metrics = promAdapter.NewMetrics(cfg.ServiceName, cfg.Observability.MetricsTextfile)
	case "noop", "":
		metrics = noop.NewMetrics()
	default:
		return nil, nil, fmt.Errorf("unsupported metrics adapter: %s", cfg.Adapters.Metrics)
	}

	return logger, metrics, nil
}
