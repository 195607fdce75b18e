package store

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/teamgate/teamgate/internal/authz"
	teamdomain "github.com/teamgate/teamgate/internal/team/domain"
	"github.com/teamgate/teamgate/pkg/apperr"
	"github.com/teamgate/teamgate/pkg/db"
	"github.com/teamgate/teamgate/pkg/principal"
)

type AddMemberRequest struct {
	TeamID snowflake.ID
	UserID snowflake.ID
	Role   string
}

// AddMember grants membership. Serialized per team through the index so no
// concurrent check observes a half-applied membership.
func (s *Store) AddMember(ctx context.Context, req AddMemberRequest) (*teamdomain.TeamMember, error) {
	const op = "store.AddMember"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}
	if req.TeamID == 0 || req.UserID == 0 {
		return nil, apperr.E(apperr.ErrInvalid, op, teamdomain.ErrInvalidTeam)
	}

	role := principal.NormalizeRole(req.Role)
	if role != teamdomain.RoleOwner && role != teamdomain.RoleMember {
		return nil, apperr.E(apperr.ErrInvalid, op, teamdomain.ErrInvalidRole)
	}
	target := teamdomain.TeamMember{TeamID: req.TeamID, UserID: req.UserID, Role: role}
	if err := s.requireWrite(ctx, p, target, authz.OpCreate, op); err != nil {
		return nil, err
	}

	active, err := s.users.IsActive(ctx, req.UserID)
	if err != nil {
		return nil, s.storageErr(op, err)
	}
	if !active {
		return nil, apperr.E(apperr.ErrInvalid, op, teamdomain.ErrMemberNotFound)
	}

	member := teamdomain.TeamMember{
		ID:       s.genID.Generate(),
		TeamID:   req.TeamID,
		UserID:   req.UserID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}

	err = s.engine.Index().Mutate(req.TeamID, func() error {
		return s.mutate(ctx, op, func(tx *gorm.DB) error {
			if err := s.requireWrite(ctx, p, target, authz.OpCreate, op); err != nil {
				return err
			}
			if err := s.teams.WithTx(tx).AddMember(ctx, member); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return apperr.E(apperr.ErrConflict, op, teamdomain.ErrAlreadyMember)
				}
				return err
			}
			return s.record(ctx, tx, p, req.TeamID, "member.add", map[string]any{
				"member_user_id": req.UserID.String(),
				"member_role":    role,
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember revokes membership. The last owner cannot be removed; delete
// the team instead.
func (s *Store) RemoveMember(ctx context.Context, teamID, userID snowflake.ID) error {
	const op = "store.RemoveMember"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return err
	}

	target := teamdomain.TeamMember{TeamID: teamID, UserID: userID}
	if err := s.requireWrite(ctx, p, target, authz.OpDelete, op); err != nil {
		return err
	}

	return s.engine.Index().Mutate(teamID, func() error {
		return s.mutate(ctx, op, func(tx *gorm.DB) error {
			if err := s.requireWrite(ctx, p, target, authz.OpDelete, op); err != nil {
				return err
			}
			repo := s.teams.WithTx(tx)
			member, err := repo.GetMember(ctx, teamID, userID)
			if err != nil {
				return err
			}
			if member.Role == teamdomain.RoleOwner {
				owners, err := s.countOwners(ctx, repo, teamID)
				if err != nil {
					return err
				}
				if owners <= 1 {
					return apperr.E(apperr.ErrConflict, op, teamdomain.ErrLastOwner)
				}
			}
			if err := repo.RemoveMember(ctx, teamID, userID); err != nil {
				return err
			}
			return s.record(ctx, tx, p, teamID, "member.remove", map[string]any{
				"member_user_id": userID.String(),
			})
		})
	})
}

// ChangeMemberRole updates the member's role tag.
func (s *Store) ChangeMemberRole(ctx context.Context, teamID, userID snowflake.ID, role string) error {
	const op = "store.ChangeMemberRole"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return err
	}

	role = principal.NormalizeRole(role)
	if role != teamdomain.RoleOwner && role != teamdomain.RoleMember {
		return apperr.E(apperr.ErrInvalid, op, teamdomain.ErrInvalidRole)
	}
	target := teamdomain.TeamMember{TeamID: teamID, UserID: userID, Role: role}
	if err := s.requireWrite(ctx, p, target, authz.OpUpdate, op); err != nil {
		return err
	}

	return s.engine.Index().Mutate(teamID, func() error {
		return s.mutate(ctx, op, func(tx *gorm.DB) error {
			if err := s.requireWrite(ctx, p, target, authz.OpUpdate, op); err != nil {
				return err
			}
			repo := s.teams.WithTx(tx)
			member, err := repo.GetMember(ctx, teamID, userID)
			if err != nil {
				return err
			}
			if member.Role == teamdomain.RoleOwner && role != teamdomain.RoleOwner {
				owners, err := s.countOwners(ctx, repo, teamID)
				if err != nil {
					return err
				}
				if owners <= 1 {
					return apperr.E(apperr.ErrConflict, op, teamdomain.ErrLastOwner)
				}
			}
			if err := repo.UpdateMemberRole(ctx, teamID, userID, role); err != nil {
				return err
			}
			return s.record(ctx, tx, p, teamID, "member.change_role", map[string]any{
				"member_user_id": userID.String(),
				"member_role":    role,
			})
		})
	})
}

// ListMembers returns the full roster: any member of a team may see who else
// is in it.
func (s *Store) ListMembers(ctx context.Context, teamID snowflake.ID) ([]teamdomain.TeamMember, error) {
	const op = "store.ListMembers"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := s.requireRead(ctx, p, teamdomain.TeamMember{TeamID: teamID}, op); err != nil {
		return nil, err
	}

	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, s.storageErr(op, err)
	}
	return members, nil
}

func (s *Store) countOwners(ctx context.Context, repo teamdomain.Repository, teamID snowflake.ID) (int, error) {
	members, err := repo.ListMembers(ctx, teamID)
	if err != nil {
		return 0, err
	}
	owners := 0
	for _, member := range members {
		if member.Role == teamdomain.RoleOwner {
			owners++
		}
	}
	return owners, nil
}
