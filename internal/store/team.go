package store

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/teamgate/teamgate/internal/authz"
	teamdomain "github.com/teamgate/teamgate/internal/team/domain"
	"github.com/teamgate/teamgate/pkg/apperr"
	"github.com/teamgate/teamgate/pkg/db"
)

type CreateTeamRequest struct {
	Name string
}

// CreateTeam creates the tenant and its founding owner membership in one
// transaction; no reader can observe a team without an owner.
func (s *Store) CreateTeam(ctx context.Context, req CreateTeamRequest) (*teamdomain.Team, error) {
	const op = "store.CreateTeam"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.E(apperr.ErrInvalid, op, teamdomain.ErrInvalidName)
	}

	if err := s.requireWrite(ctx, p, teamdomain.Team{}, authz.OpCreate, op); err != nil {
		return nil, err
	}
	if p.IsSystem() {
		return nil, apperr.E(apperr.ErrInvalid, op, teamdomain.ErrInvalidTeam)
	}

	now := time.Now().UTC()
	team := teamdomain.Team{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.mutate(ctx, op, func(tx *gorm.DB) error {
		if err := s.requireWrite(ctx, p, teamdomain.Team{}, authz.OpCreate, op); err != nil {
			return err
		}
		repo := s.teams.WithTx(tx)
		if err := repo.CreateTeam(ctx, team); err != nil {
			return err
		}
		member := teamdomain.TeamMember{
			ID:       s.genID.Generate(),
			TeamID:   team.ID,
			UserID:   p.UserID,
			Role:     teamdomain.RoleOwner,
			JoinedAt: now,
		}
		if err := repo.AddMember(ctx, member); err != nil {
			return err
		}
		return s.record(ctx, tx, p, team.ID, "team.create", map[string]any{
			"team_name": name,
		})
	})
	if err != nil {
		return nil, err
	}

	s.engine.Index().InvalidateTeam(team.ID)
	return &team, nil
}

// GetTeam returns the team iff the caller is a member. Non-members get
// Forbidden whether or not the team exists.
func (s *Store) GetTeam(ctx context.Context, id snowflake.ID) (*teamdomain.Team, error) {
	const op = "store.GetTeam"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := s.requireRead(ctx, p, teamdomain.Team{ID: id}, op); err != nil {
		return nil, err
	}

	team, err := s.teams.GetTeam(ctx, id)
	if err != nil {
		if db.IsNotFoundErr(err) {
			return nil, apperr.E(apperr.ErrNotFound, op, teamdomain.ErrTeamNotFound)
		}
		return nil, s.storageErr(op, err)
	}
	return team, nil
}

// ListTeams applies the read policy as a row filter: only teams the caller
// belongs to come back, in storage order.
func (s *Store) ListTeams(ctx context.Context) ([]teamdomain.TeamListItem, error) {
	const op = "store.ListTeams"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}
	if p.IsSystem() {
		return nil, apperr.E(apperr.ErrInvalid, op, teamdomain.ErrInvalidTeam)
	}

	active, err := s.users.IsActive(ctx, p.UserID)
	if err != nil {
		return nil, s.storageErr(op, err)
	}
	if !active {
		return nil, apperr.E(apperr.ErrForbidden, op, nil)
	}

	items, err := s.teams.ListTeamsByUser(ctx, p.UserID)
	if err != nil {
		return nil, s.storageErr(op, err)
	}
	return items, nil
}

type UpdateTeamRequest struct {
	Name string
}

func (s *Store) UpdateTeam(ctx context.Context, id snowflake.ID, req UpdateTeamRequest) (*teamdomain.Team, error) {
	const op = "store.UpdateTeam"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.E(apperr.ErrInvalid, op, teamdomain.ErrInvalidName)
	}

	if err := s.requireWrite(ctx, p, teamdomain.Team{ID: id}, authz.OpUpdate, op); err != nil {
		return nil, err
	}

	var updated *teamdomain.Team
	err = s.engine.Index().Mutate(id, func() error {
		return s.mutate(ctx, op, func(tx *gorm.DB) error {
			if err := s.requireWrite(ctx, p, teamdomain.Team{ID: id}, authz.OpUpdate, op); err != nil {
				return err
			}
			repo := s.teams.WithTx(tx)
			current, err := repo.GetTeam(ctx, id)
			if err != nil {
				return err
			}
			current.Name = name
			current.Slug = slug.Make(name)
			if err := repo.UpdateTeam(ctx, *current); err != nil {
				return err
			}
			if err := s.record(ctx, tx, p, id, "team.update", map[string]any{
				"team_name": name,
			}); err != nil {
				return err
			}
			updated = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTeam is the deliberate cascade: memberships and pending invitations
// go with the team in one transaction. Activity rows are append-only and
// survive for history integrity.
func (s *Store) DeleteTeam(ctx context.Context, id snowflake.ID) error {
	const op = "store.DeleteTeam"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return err
	}
	if err := s.requireWrite(ctx, p, teamdomain.Team{ID: id}, authz.OpDelete, op); err != nil {
		return err
	}

	return s.engine.Index().Mutate(id, func() error {
		return s.mutate(ctx, op, func(tx *gorm.DB) error {
			if err := s.requireWrite(ctx, p, teamdomain.Team{ID: id}, authz.OpDelete, op); err != nil {
				return err
			}
			teams := s.teams.WithTx(tx)
			if _, err := teams.GetTeam(ctx, id); err != nil {
				return err
			}
			if err := s.record(ctx, tx, p, id, "team.delete", nil); err != nil {
				return err
			}
			if err := s.invitations.WithTx(tx).DeletePendingByTeam(ctx, id); err != nil {
				return err
			}
			if err := teams.DeleteMembersByTeam(ctx, id); err != nil {
				return err
			}
			return teams.DeleteTeam(ctx, id)
		})
	})
}

// UpdateTeamBilling is the billing collaborator's entry point; only the
// system principal holds the grant. Uniqueness of customer/subscription ids
// is enforced by storage and surfaces as Conflict.
func (s *Store) UpdateTeamBilling(ctx context.Context, id snowflake.ID, update teamdomain.BillingUpdate) error {
	const op = "store.UpdateTeamBilling"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return err
	}
	if err := s.requireWrite(ctx, p, teamdomain.Team{ID: id}, authz.OpUpdate, op); err != nil {
		return err
	}
	if !p.IsSystem() {
		return apperr.E(apperr.ErrForbidden, op, nil)
	}

	return s.mutate(ctx, op, func(tx *gorm.DB) error {
		if err := s.requireWrite(ctx, p, teamdomain.Team{ID: id}, authz.OpUpdate, op); err != nil {
			return err
		}
		repo := s.teams.WithTx(tx)
		if _, err := repo.GetTeam(ctx, id); err != nil {
			return err
		}
		if err := repo.UpdateBilling(ctx, id, update); err != nil {
			return err
		}
		return s.record(ctx, tx, p, id, "team.billing_update", nil)
	})
}
