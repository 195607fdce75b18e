package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/teamgate/teamgate/internal/activity/domain"
	activityrepository "github.com/teamgate/teamgate/internal/activity/repository"
	activityservice "github.com/teamgate/teamgate/internal/activity/service"
	"github.com/teamgate/teamgate/internal/authz"
	invitationdomain "github.com/teamgate/teamgate/internal/invitation/domain"
	invitationrepository "github.com/teamgate/teamgate/internal/invitation/repository"
	teamdomain "github.com/teamgate/teamgate/internal/team/domain"
	teamrepository "github.com/teamgate/teamgate/internal/team/repository"
	userdomain "github.com/teamgate/teamgate/internal/user/domain"
	userrepository "github.com/teamgate/teamgate/internal/user/repository"
	dbpkg "github.com/teamgate/teamgate/pkg/db"
	"github.com/teamgate/teamgate/pkg/principal"
)

type fixture struct {
	store *Store
	db    *gorm.DB
	node  *snowflake.Node
	users userdomain.Repository
	teams teamdomain.Repository
}

type roleSource struct {
	teams teamdomain.Repository
}

func (s roleSource) RoleOf(ctx context.Context, teamID, userID snowflake.ID) (string, error) {
	return s.teams.RoleOf(ctx, teamID, userID)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRecorder(t, nil)
}

// newFixtureWithRecorder allows swapping the activity recorder, used to prove
// the mutation rolls back when recording fails.
func newFixtureWithRecorder(t *testing.T, recorder activitydomain.Recorder) *fixture {
	t.Helper()

	conn, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&userdomain.User{},
		&teamdomain.Team{},
		&teamdomain.TeamMember{},
		&invitationdomain.Invitation{},
		&activitydomain.ActivityLog{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}

	users := userrepository.NewRepository(conn)
	teams := teamrepository.NewRepository(conn)
	invitations := invitationrepository.NewRepository(conn)

	enforcer, err := authz.NewEnforcer(conn)
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}
	index := authz.NewIndex(roleSource{teams}, time.Minute)
	engine := authz.NewEngine(authz.Params{
		Log:      zap.NewNop(),
		Index:    index,
		Users:    users,
		Enforcer: enforcer,
	})

	if recorder == nil {
		recorder = activityservice.NewService(activityservice.Params{
			DB:    conn,
			Log:   zap.NewNop(),
			GenID: node,
			Repo:  activityrepository.Provide(),
		})
	}

	store := New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		Engine:      engine,
		Users:       users,
		Teams:       teams,
		Invitations: invitations,
		Recorder:    recorder,
	})

	return &fixture{store: store, db: conn, node: node, users: users, teams: teams}
}

func (f *fixture) createUser(t *testing.T, name string) userdomain.User {
	t.Helper()

	now := time.Now().UTC()
	user := userdomain.User{
		ID:           f.node.Generate(),
		Name:         name,
		Email:        fmt.Sprintf("%s-%d@example.com", name, f.node.Generate()),
		PasswordHash: "argon2id$test",
		Role:         userdomain.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func (f *fixture) ctxFor(user userdomain.User) context.Context {
	return principal.WithPrincipal(context.Background(), principal.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
}

func (f *fixture) systemCtx() context.Context {
	return principal.WithPrincipal(context.Background(), principal.System())
}

func (f *fixture) countActivity(t *testing.T, teamID snowflake.ID, action string) int64 {
	t.Helper()

	var count int64
	err := f.db.Model(&activitydomain.ActivityLog{}).
		Where("team_id = ? AND action = ?", teamID, action).
		Count(&count).Error
	if err != nil {
		t.Fatalf("failed to count activity rows: %v", err)
	}
	return count
}
