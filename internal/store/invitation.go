package store

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/teamgate/teamgate/internal/authz"
	invitationdomain "github.com/teamgate/teamgate/internal/invitation/domain"
	teamdomain "github.com/teamgate/teamgate/internal/team/domain"
	"github.com/teamgate/teamgate/pkg/apperr"
	"github.com/teamgate/teamgate/pkg/db"
	"github.com/teamgate/teamgate/pkg/principal"
)

type CreateInvitationRequest struct {
	TeamID snowflake.ID
	Email  string
	Role   string
}

// CreateInvitation records a pending invite. The inviter must be an
// existing, non-deleted user holding the invitation.create grant.
func (s *Store) CreateInvitation(ctx context.Context, req CreateInvitationRequest) (*invitationdomain.Invitation, error) {
	const op = "store.CreateInvitation"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}
	if p.IsSystem() {
		return nil, apperr.E(apperr.ErrInvalid, op, invitationdomain.ErrInvalidInvitation)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.E(apperr.ErrInvalid, op, invitationdomain.ErrInvalidEmail)
	}
	role := principal.NormalizeRole(req.Role)
	if role != teamdomain.RoleOwner && role != teamdomain.RoleMember {
		return nil, apperr.E(apperr.ErrInvalid, op, invitationdomain.ErrInvalidRole)
	}

	target := invitationdomain.Invitation{TeamID: req.TeamID}
	if err := s.requireWrite(ctx, p, target, authz.OpCreate, op); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	invitation := invitationdomain.Invitation{
		ID:        s.genID.Generate(),
		TeamID:    req.TeamID,
		Email:     email,
		Role:      role,
		Code:      ulid.Make().String(),
		Status:    invitationdomain.StatusPending,
		InvitedBy: p.UserID,
		InvitedAt: now,
		UpdatedAt: now,
	}

	err = s.engine.Index().Mutate(req.TeamID, func() error {
		return s.mutate(ctx, op, func(tx *gorm.DB) error {
			if err := s.requireWrite(ctx, p, target, authz.OpCreate, op); err != nil {
				return err
			}
			if err := s.invitations.WithTx(tx).Create(ctx, invitation); err != nil {
				return err
			}
			return s.record(ctx, tx, p, req.TeamID, "invitation.create", map[string]any{
				"invitee_email": email,
				"invited_role":  invitation.Role,
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListInvitations returns the team's invitations to any of its members.
func (s *Store) ListInvitations(ctx context.Context, teamID snowflake.ID) ([]invitationdomain.Invitation, error) {
	const op = "store.ListInvitations"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := s.requireRead(ctx, p, invitationdomain.Invitation{TeamID: teamID}, op); err != nil {
		return nil, err
	}

	invitations, err := s.invitations.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, s.storageErr(op, err)
	}
	return invitations, nil
}

// RevokeInvitation moves a pending invitation to REVOKED.
func (s *Store) RevokeInvitation(ctx context.Context, id snowflake.ID) error {
	const op = "store.RevokeInvitation"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return err
	}

	invitation, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFoundErr(err) {
			// Absence and denial must be indistinguishable.
			return apperr.E(apperr.ErrForbidden, op, nil)
		}
		return s.storageErr(op, err)
	}

	if err := s.canRevoke(ctx, p, invitation, op); err != nil {
		return err
	}
	if invitationdomain.Terminal(invitation.Status) {
		return apperr.E(apperr.ErrConflict, op, invitationdomain.ErrNotPending)
	}

	return s.engine.Index().Mutate(invitation.TeamID, func() error {
		return s.mutate(ctx, op, func(tx *gorm.DB) error {
			if err := s.canRevoke(ctx, p, invitation, op); err != nil {
				return err
			}
			moved, err := s.invitations.WithTx(tx).TransitionStatus(ctx, id, invitationdomain.StatusPending, invitationdomain.StatusRevoked)
			if err != nil {
				return err
			}
			if !moved {
				return apperr.E(apperr.ErrConflict, op, invitationdomain.ErrNotPending)
			}
			return s.record(ctx, tx, p, invitation.TeamID, "invitation.revoke", map[string]any{
				"invitee_email": invitation.Email,
			})
		})
	})
}

// canRevoke applies the revoke policy: the role grant, or the inviter
// withdrawing their own invite while still a member of the team.
func (s *Store) canRevoke(ctx context.Context, p principal.Principal, invitation *invitationdomain.Invitation, op string) error {
	err := s.requireWrite(ctx, p, *invitation, authz.OpUpdate, op)
	if err == nil || s.isActingInviter(ctx, p, invitation) {
		return nil
	}
	return err
}

func (s *Store) isActingInviter(ctx context.Context, p principal.Principal, invitation *invitationdomain.Invitation) bool {
	if p.IsSystem() || invitation.InvitedBy != p.UserID {
		return false
	}
	member, err := s.engine.Index().IsMember(ctx, invitation.TeamID, p.UserID)
	return err == nil && member
}

// RedeemInvitation accepts the invitation for userID and creates the
// membership, both in one transaction. The status compare-and-set makes a
// second redeem fail with Conflict instead of minting a duplicate
// membership. Called by the acceptance collaborator under the system
// principal, since the invitee is not yet a member of the team.
func (s *Store) RedeemInvitation(ctx context.Context, invitationID, userID snowflake.ID) (*teamdomain.TeamMember, error) {
	const op = "store.RedeemInvitation"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}
	if userID == 0 {
		return nil, apperr.E(apperr.ErrInvalid, op, invitationdomain.ErrInvalidInvitation)
	}

	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		if db.IsNotFoundErr(err) {
			return nil, apperr.E(apperr.ErrForbidden, op, nil)
		}
		return nil, s.storageErr(op, err)
	}

	if err := s.requireWrite(ctx, p, *invitation, authz.OpUpdate, op); err != nil {
		return nil, err
	}
	if invitationdomain.Terminal(invitation.Status) {
		return nil, apperr.E(apperr.ErrConflict, op, invitationdomain.ErrNotPending)
	}

	active, err := s.users.IsActive(ctx, userID)
	if err != nil {
		return nil, s.storageErr(op, err)
	}
	if !active {
		return nil, apperr.E(apperr.ErrInvalid, op, invitationdomain.ErrInvalidInvitation)
	}

	member := teamdomain.TeamMember{
		ID:       s.genID.Generate(),
		TeamID:   invitation.TeamID,
		UserID:   userID,
		Role:     principal.NormalizeRole(invitation.Role),
		JoinedAt: time.Now().UTC(),
	}

	err = s.engine.Index().Mutate(invitation.TeamID, func() error {
		return s.mutate(ctx, op, func(tx *gorm.DB) error {
			if err := s.requireWrite(ctx, p, *invitation, authz.OpUpdate, op); err != nil {
				return err
			}
			moved, err := s.invitations.WithTx(tx).TransitionStatus(ctx, invitationID, invitationdomain.StatusPending, invitationdomain.StatusAccepted)
			if err != nil {
				return err
			}
			if !moved {
				return apperr.E(apperr.ErrConflict, op, invitationdomain.ErrNotPending)
			}
			if err := s.teams.WithTx(tx).AddMember(ctx, member); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return apperr.E(apperr.ErrConflict, op, teamdomain.ErrAlreadyMember)
				}
				return err
			}
			// Attributed to the redeeming user, not the system principal.
			entryUser := userID
			return s.recordAs(ctx, tx, &entryUser, invitation.TeamID, "invitation.accept", map[string]any{
				"invitation_id": invitationID.String(),
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}
