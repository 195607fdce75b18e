package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTeam(ctx context.Context, team Team) error
	GetTeam(ctx context.Context, id snowflake.ID) (*Team, error)
	UpdateTeam(ctx context.Context, team Team) error
	UpdateBilling(ctx context.Context, id snowflake.ID, update BillingUpdate) error
	// DeleteTeam removes the team row only; the caller cascades memberships
	// and invitations explicitly in the same transaction.
	DeleteTeam(ctx context.Context, id snowflake.ID) error
	ListTeamsByUser(ctx context.Context, userID snowflake.ID) ([]TeamListItem, error)

	AddMember(ctx context.Context, member TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID snowflake.ID) error
	UpdateMemberRole(ctx context.Context, teamID, userID snowflake.ID, role string) error
	GetMember(ctx context.Context, teamID, userID snowflake.ID) (*TeamMember, error)
	ListMembers(ctx context.Context, teamID snowflake.ID) ([]TeamMember, error)
	DeleteMembersByTeam(ctx context.Context, teamID snowflake.ID) error

	// RoleOf returns the membership role, or "" when the pair is absent or
	// the member's user row is soft-deleted.
	RoleOf(ctx context.Context, teamID, userID snowflake.ID) (string, error)
}
