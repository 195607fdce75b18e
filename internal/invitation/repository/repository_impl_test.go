package repository

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgate/teamgate/internal/invitation/domain"
	dbpkg "github.com/teamgate/teamgate/pkg/db"
)

func setup(t *testing.T) (domain.Repository, *snowflake.Node) {
	t.Helper()

	conn, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Invitation{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewRepository(conn), node
}

func seedInvitation(t *testing.T, repo domain.Repository, node *snowflake.Node, teamID snowflake.ID, status string) domain.Invitation {
	t.Helper()

	invitation := domain.Invitation{
		ID:        node.Generate(),
		TeamID:    teamID,
		Email:     "a@example.com",
		Role:      "member",
		Code:      node.Generate().String(),
		Status:    status,
		InvitedBy: node.Generate(),
	}
	require.NoError(t, repo.Create(context.Background(), invitation))
	return invitation
}

func TestTransitionStatusIsCompareAndSet(t *testing.T) {
	repo, node := setup(t)
	ctx := context.Background()
	invitation := seedInvitation(t, repo, node, node.Generate(), domain.StatusPending)

	moved, err := repo.TransitionStatus(ctx, invitation.ID, domain.StatusPending, domain.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, moved)

	// Terminal state: the same transition no longer applies.
	moved, err = repo.TransitionStatus(ctx, invitation.ID, domain.StatusPending, domain.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = repo.TransitionStatus(ctx, invitation.ID, domain.StatusPending, domain.StatusRevoked)
	require.NoError(t, err)
	assert.False(t, moved)

	stored, err := repo.GetByID(ctx, invitation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, stored.Status)
}

func TestDeletePendingByTeamKeepsTerminalRows(t *testing.T) {
	repo, node := setup(t)
	ctx := context.Background()
	teamID := node.Generate()

	pending := seedInvitation(t, repo, node, teamID, domain.StatusPending)
	accepted := seedInvitation(t, repo, node, teamID, domain.StatusAccepted)

	require.NoError(t, repo.DeletePendingByTeam(ctx, teamID))

	_, err := repo.GetByID(ctx, pending.ID)
	require.Error(t, err)
	assert.True(t, dbpkg.IsNotFoundErr(err))

	stored, err := repo.GetByID(ctx, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, stored.Status)
}

func TestUniqueCodeEnforced(t *testing.T) {
	repo, node := setup(t)
	ctx := context.Background()

	first := seedInvitation(t, repo, node, node.Generate(), domain.StatusPending)

	dup := domain.Invitation{
		ID:        node.Generate(),
		TeamID:    node.Generate(),
		Email:     "b@example.com",
		Role:      "member",
		Code:      first.Code,
		Status:    domain.StatusPending,
		InvitedBy: node.Generate(),
	}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, dbpkg.IsDuplicateKeyErr(err))
}
