package activity

import (
	"go.uber.org/fx"

	"github.com/teamgate/teamgate/internal/activity/repository"
	"github.com/teamgate/teamgate/internal/activity/service"
)

var Module = fx.Module("activity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
