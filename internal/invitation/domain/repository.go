package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invitation Invitation) error
	GetByID(ctx context.Context, id snowflake.ID) (*Invitation, error)
	ListByTeam(ctx context.Context, teamID snowflake.ID) ([]Invitation, error)
	// TransitionStatus moves from exactly fromStatus to toStatus and reports
	// whether a row changed, giving callers an optimistic-concurrency check.
	TransitionStatus(ctx context.Context, id snowflake.ID, fromStatus, toStatus string) (bool, error)
	DeletePendingByTeam(ctx context.Context, teamID snowflake.ID) error
}

var (
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrInvalidRole       = errors.New("invalid_role")
	ErrInvalidInvitation = errors.New("invalid_invitation")
	ErrNotPending        = errors.New("invitation_not_pending")
)
