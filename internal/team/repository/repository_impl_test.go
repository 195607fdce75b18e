package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/teamgate/teamgate/internal/team/domain"
	userdomain "github.com/teamgate/teamgate/internal/user/domain"
	dbpkg "github.com/teamgate/teamgate/pkg/db"
)

func setup(t *testing.T) (domain.Repository, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&userdomain.User{}, &domain.Team{}, &domain.TeamMember{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewRepository(conn), conn, node
}

func seedUser(t *testing.T, conn *gorm.DB, node *snowflake.Node, email string) userdomain.User {
	t.Helper()

	user := userdomain.User{
		ID:           node.Generate(),
		Email:        email,
		PasswordHash: "hash",
		Role:         userdomain.RoleMember,
	}
	require.NoError(t, conn.Create(&user).Error)
	return user
}

func TestRoleOfIgnoresDeletedUsers(t *testing.T) {
	repo, conn, node := setup(t)
	ctx := context.Background()

	user := seedUser(t, conn, node, "a@example.com")
	team := domain.Team{ID: node.Generate(), Name: "Acme", Slug: "acme"}
	require.NoError(t, repo.CreateTeam(ctx, team))
	require.NoError(t, repo.AddMember(ctx, domain.TeamMember{
		ID:     node.Generate(),
		TeamID: team.ID,
		UserID: user.ID,
		Role:   domain.RoleOwner,
	}))

	role, err := repo.RoleOf(ctx, team.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	// Soft-delete the user; the membership row stays but the role is gone.
	now := time.Now().UTC()
	require.NoError(t, conn.Model(&userdomain.User{}).Where("id = ?", user.ID).Update("deleted_at", &now).Error)

	role, err = repo.RoleOf(ctx, team.ID, user.ID)
	require.NoError(t, err)
	assert.Empty(t, role)

	member, err := repo.GetMember(ctx, team.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, member.Role)
}

func TestRoleOfAbsentPair(t *testing.T) {
	repo, _, node := setup(t)

	role, err := repo.RoleOf(context.Background(), node.Generate(), node.Generate())
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestDuplicateMembershipRejected(t *testing.T) {
	repo, conn, node := setup(t)
	ctx := context.Background()

	user := seedUser(t, conn, node, "a@example.com")
	team := domain.Team{ID: node.Generate(), Name: "Acme", Slug: "acme"}
	require.NoError(t, repo.CreateTeam(ctx, team))

	member := domain.TeamMember{ID: node.Generate(), TeamID: team.ID, UserID: user.ID, Role: domain.RoleMember}
	require.NoError(t, repo.AddMember(ctx, member))

	member.ID = node.Generate()
	err := repo.AddMember(ctx, member)
	require.Error(t, err)
	assert.True(t, dbpkg.IsDuplicateKeyErr(err))
}

func TestListTeamsByUserOrdersByCreation(t *testing.T) {
	repo, conn, node := setup(t)
	ctx := context.Background()

	user := seedUser(t, conn, node, "a@example.com")
	base := time.Now().UTC()

	for i, name := range []string{"First", "Second"} {
		team := domain.Team{
			ID:        node.Generate(),
			Name:      name,
			Slug:      name + "-slug",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.CreateTeam(ctx, team))
		require.NoError(t, repo.AddMember(ctx, domain.TeamMember{
			ID:     node.Generate(),
			TeamID: team.ID,
			UserID: user.ID,
			Role:   domain.RoleOwner,
		}))
	}

	items, err := repo.ListTeamsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "First", items[0].Name)
	assert.Equal(t, "Second", items[1].Name)
	assert.Equal(t, domain.RoleOwner, items[0].Role)
}

func TestUpdateBillingSetsOnlyProvidedFields(t *testing.T) {
	repo, _, node := setup(t)
	ctx := context.Background()

	team := domain.Team{ID: node.Generate(), Name: "Acme", Slug: "acme"}
	require.NoError(t, repo.CreateTeam(ctx, team))

	customer := "cus_123"
	plan := "pro"
	require.NoError(t, repo.UpdateBilling(ctx, team.ID, domain.BillingUpdate{
		CustomerID: &customer,
		PlanName:   &plan,
	}))

	stored, err := repo.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.BillingCustomerID)
	assert.Equal(t, customer, *stored.BillingCustomerID)
	require.NotNil(t, stored.PlanName)
	assert.Equal(t, plan, *stored.PlanName)
	assert.Nil(t, stored.BillingSubID)

	// Blank strings clear the field instead of storing empty text.
	empty := ""
	require.NoError(t, repo.UpdateBilling(ctx, team.ID, domain.BillingUpdate{CustomerID: &empty}))
	stored, err = repo.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.BillingCustomerID)
}
