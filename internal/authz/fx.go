package authz

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/teamgate/teamgate/internal/config"
	teamdomain "github.com/teamgate/teamgate/internal/team/domain"
	userdomain "github.com/teamgate/teamgate/internal/user/domain"
)

var Module = fx.Module("authz",
	fx.Provide(NewEnforcer),
	fx.Provide(func(cfg config.Config, teams teamdomain.Repository) *Index {
		return NewIndex(
			membershipSource{teams},
			time.Duration(cfg.MembershipCacheTTLSeconds)*time.Second,
		)
	}),
	fx.Provide(func(users userdomain.Repository) UserDirectory { return users }),
	fx.Provide(NewEngine),
)

type membershipSource struct {
	teams teamdomain.Repository
}

func (s membershipSource) RoleOf(ctx context.Context, teamID, userID snowflake.ID) (string, error) {
	return s.teams.RoleOf(ctx, teamID, userID)
}
