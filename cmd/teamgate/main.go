package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/teamgate/teamgate/internal/activity"
	"github.com/teamgate/teamgate/internal/authz"
	"github.com/teamgate/teamgate/internal/config"
	"github.com/teamgate/teamgate/internal/invitation"
	"github.com/teamgate/teamgate/internal/migration"
	"github.com/teamgate/teamgate/internal/observability"
	"github.com/teamgate/teamgate/internal/server"
	"github.com/teamgate/teamgate/internal/store"
	"github.com/teamgate/teamgate/internal/team"
	"github.com/teamgate/teamgate/internal/user"
	"github.com/teamgate/teamgate/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Domain repositories and services
		user.Module,
		team.Module,
		invitation.Module,
		activity.Module,
		authz.Module,
		store.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
