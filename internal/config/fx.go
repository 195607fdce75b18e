package config

import (
	"go.uber.org/fx"

	"github.com/teamgate/teamgate/pkg/db"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(func(cfg Config) db.Config { return cfg.DB }),
)
