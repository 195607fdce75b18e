package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	activitydomain "github.com/teamgate/teamgate/internal/activity/domain"
	"github.com/teamgate/teamgate/internal/config"
	invitationdomain "github.com/teamgate/teamgate/internal/invitation/domain"
	teamdomain "github.com/teamgate/teamgate/internal/team/domain"
	userdomain "github.com/teamgate/teamgate/internal/user/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DB.Type != "postgres" {
			// Non-postgres deployments (dev sqlite, mysql) take the
			// model-derived schema instead of versioned SQL.
			return conn.AutoMigrate(
				&userdomain.User{},
				&teamdomain.Team{},
				&teamdomain.TeamMember{},
				&invitationdomain.Invitation{},
				&activitydomain.ActivityLog{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
