package observability

import (
	"go.uber.org/fx"

	"github.com/teamgate/teamgate/internal/config"
	"github.com/teamgate/teamgate/internal/observability/logger"
	"github.com/teamgate/teamgate/internal/observability/metrics"
)

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) logger.Config {
		return logger.Config{
			ServiceName: cfg.AppName,
			Environment: cfg.Environment,
			Version:     cfg.AppVersion,
			Level:       cfg.LogLevel,
			Format:      cfg.LogFormat,
		}
	}),
	fx.Provide(logger.New),
	fx.Provide(metrics.New),
)
