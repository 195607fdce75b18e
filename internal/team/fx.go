package team

import (
	"go.uber.org/fx"

	"github.com/teamgate/teamgate/internal/team/repository"
)

var Module = fx.Module("team.repository",
	fx.Provide(repository.NewRepository),
)
