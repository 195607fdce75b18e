package invitation

import (
	"go.uber.org/fx"

	"github.com/teamgate/teamgate/internal/invitation/repository"
)

var Module = fx.Module("invitation.repository",
	fx.Provide(repository.NewRepository),
)
