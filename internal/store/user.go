package store

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/teamgate/teamgate/internal/authz"
	userdomain "github.com/teamgate/teamgate/internal/user/domain"
	"github.com/teamgate/teamgate/pkg/apperr"
	"github.com/teamgate/teamgate/pkg/db"
	"github.com/teamgate/teamgate/pkg/principal"
	"gorm.io/gorm"
)

// CreateUserRequest provisions a user account. The credential hash comes
// from the authentication collaborator; the core never hashes passwords.
type CreateUserRequest struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// CreateUser is reserved for the provisioning collaborator (system
// principal); the write policy grants user.create to nothing else.
func (s *Store) CreateUser(ctx context.Context, req CreateUserRequest) (*userdomain.User, error) {
	const op = "store.CreateUser"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.E(apperr.ErrInvalid, op, userdomain.ErrInvalidEmail)
	}
	if strings.TrimSpace(req.PasswordHash) == "" {
		return nil, apperr.E(apperr.ErrInvalid, op, userdomain.ErrInvalidUser)
	}

	user := userdomain.User{
		ID:           s.genID.Generate(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: req.PasswordHash,
		Role:         principal.NormalizeRole(req.Role),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := s.requireWrite(ctx, p, user, authz.OpCreate, op); err != nil {
		return nil, err
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperr.E(apperr.ErrConflict, op, userdomain.ErrEmailTaken)
	} else if err != nil && !db.IsNotFoundErr(err) {
		return nil, s.storageErr(op, err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The unique index stays authoritative against a concurrent insert.
		if db.IsDuplicateKeyErr(err) {
			return nil, apperr.E(apperr.ErrConflict, op, userdomain.ErrEmailTaken)
		}
		return nil, s.storageErr(op, err)
	}
	return &user, nil
}

// GetUser returns a user row. The base read policy is self-only, so asking
// for anyone else answers Forbidden whether or not they exist.
func (s *Store) GetUser(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	const op = "store.GetUser"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := s.requireRead(ctx, p, userdomain.User{ID: id}, op); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageErr(op, err)
	}
	if user.Deleted() {
		return nil, apperr.E(apperr.ErrNotFound, op, userdomain.ErrUserNotFound)
	}
	return user, nil
}

// UpdateUserRequest edits the caller's own profile.
type UpdateUserRequest struct {
	Name  string
	Email string
}

func (s *Store) UpdateUser(ctx context.Context, id snowflake.ID, req UpdateUserRequest) (*userdomain.User, error) {
	const op = "store.UpdateUser"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" && !strings.Contains(email, "@") {
		return nil, apperr.E(apperr.ErrInvalid, op, userdomain.ErrInvalidEmail)
	}

	if err := s.requireWrite(ctx, p, userdomain.User{ID: id}, authz.OpUpdate, op); err != nil {
		return nil, err
	}

	var updated *userdomain.User
	err = s.mutate(ctx, op, func(tx *gorm.DB) error {
		if err := s.requireWrite(ctx, p, userdomain.User{ID: id}, authz.OpUpdate, op); err != nil {
			return err
		}
		repo := s.users.WithTx(tx)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Deleted() {
			return apperr.E(apperr.ErrNotFound, op, userdomain.ErrUserNotFound)
		}
		if name != "" {
			current.Name = name
		}
		if email != "" {
			current.Email = email
		}
		if err := repo.Update(ctx, *current); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return apperr.E(apperr.ErrConflict, op, userdomain.ErrEmailTaken)
			}
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDeleteUser marks the account deleted. The row stays for audit history;
// the engine stops honoring the identity immediately.
func (s *Store) SoftDeleteUser(ctx context.Context, id snowflake.ID) error {
	const op = "store.SoftDeleteUser"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return err
	}
	if err := s.requireWrite(ctx, p, userdomain.User{ID: id}, authz.OpDelete, op); err != nil {
		return err
	}

	err = s.mutate(ctx, op, func(tx *gorm.DB) error {
		if err := s.requireWrite(ctx, p, userdomain.User{ID: id}, authz.OpDelete, op); err != nil {
			return err
		}
		return s.users.WithTx(tx).SoftDelete(ctx, id, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	s.engine.Index().InvalidateUser(id)
	return nil
}
