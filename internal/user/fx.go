package user

import (
	"go.uber.org/fx"

	"github.com/teamgate/teamgate/internal/user/repository"
)

var Module = fx.Module("user.repository",
	fx.Provide(repository.NewRepository),
)
