// Package store is the access-controlled repository: the only path through
// which callers touch storage. Every operation resolves the principal, asks
// the authorization engine, and runs fetch-authorize-mutate inside one
// transaction with its activity record.
package store

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/teamgate/teamgate/internal/activity/domain"
	"github.com/teamgate/teamgate/internal/authz"
	invitationdomain "github.com/teamgate/teamgate/internal/invitation/domain"
	"github.com/teamgate/teamgate/internal/observability/logger"
	teamdomain "github.com/teamgate/teamgate/internal/team/domain"
	userdomain "github.com/teamgate/teamgate/internal/user/domain"
	"github.com/teamgate/teamgate/pkg/apperr"
	"github.com/teamgate/teamgate/pkg/db"
	"github.com/teamgate/teamgate/pkg/principal"
	"github.com/teamgate/teamgate/pkg/requestmeta"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Engine      *authz.Engine
	Users       userdomain.Repository
	Teams       teamdomain.Repository
	Invitations invitationdomain.Repository
	Recorder    activitydomain.Recorder
}

type Store struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	engine      *authz.Engine
	users       userdomain.Repository
	teams       teamdomain.Repository
	invitations invitationdomain.Repository
	recorder    activitydomain.Recorder
}

func New(p Params) *Store {
	return &Store{
		db:          p.DB,
		log:         p.Log.Named("store"),
		genID:       p.GenID,
		engine:      p.Engine,
		users:       p.Users,
		teams:       p.Teams,
		invitations: p.Invitations,
		recorder:    p.Recorder,
	}
}

// resolve returns the request principal or a Forbidden error. Anonymous
// callers get the same answer as unauthorized ones.
func (s *Store) resolve(ctx context.Context, op string) (principal.Principal, error) {
	p, ok := principal.FromContext(ctx)
	if !ok {
		return principal.Principal{}, apperr.E(apperr.ErrForbidden, op, nil)
	}
	return p, nil
}

// requireRead collapses both deny and absence into Forbidden so a denied
// read never reveals whether the row exists.
func (s *Store) requireRead(ctx context.Context, p principal.Principal, res authz.Resource, op string) error {
	allowed, err := s.engine.CanRead(ctx, p, res)
	if err != nil {
		return apperr.E(apperr.ErrUnavailable, op, err)
	}
	if !allowed {
		return apperr.E(apperr.ErrForbidden, op, nil)
	}
	return nil
}

// requireWrite maps a denied or failed write decision into the taxonomy.
// Mutating operations evaluate it twice: once up front, turning unauthorized
// callers away before any lock is taken, and once more inside the serialized
// section, so a grant revoked between the first answer and the team lock
// cannot carry a stale allow into the mutation.
func (s *Store) requireWrite(ctx context.Context, p principal.Principal, res authz.Resource, operation authz.Operation, op string) error {
	allowed, err := s.engine.CanWrite(ctx, p, res, operation)
	if err != nil {
		return apperr.E(apperr.ErrUnavailable, op, err)
	}
	if !allowed {
		return apperr.E(apperr.ErrForbidden, op, nil)
	}
	return nil
}

// mutate runs fn in a transaction. A serialization conflict is retried once;
// everything else surfaces mapped through storageErr.
func (s *Store) mutate(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if err != nil && isRetryableConflict(err) {
		logger.WithContext(ctx, s.log).Debug("retrying after write conflict", zap.String("op", op))
		err = s.db.WithContext(ctx).Transaction(fn)
	}
	if err != nil {
		return s.storageErr(op, err)
	}
	return nil
}

// storageErr maps storage failures into the error taxonomy without leaking
// engine error text. Errors already carrying a kind pass through.
func (s *Store) storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.Kind(err) != nil {
		return err
	}
	switch {
	case db.IsDuplicateKeyErr(err):
		return apperr.E(apperr.ErrConflict, op, err)
	case db.IsNotFoundErr(err):
		return apperr.E(apperr.ErrNotFound, op, err)
	default:
		return apperr.E(apperr.ErrUnavailable, op, err)
	}
}

// record appends the audit entry for a successful mutation. Called on the
// mutation's own transaction: if recording fails, the mutation rolls back.
func (s *Store) record(ctx context.Context, tx *gorm.DB, p principal.Principal, teamID snowflake.ID, action string, metadata map[string]any) error {
	var userID *snowflake.ID
	if !p.IsSystem() {
		id := p.UserID
		userID = &id
	}
	return s.recordAs(ctx, tx, userID, teamID, action, metadata)
}

// recordAs writes the entry under an explicit actor, for flows where the
// acting identity is not the request principal.
func (s *Store) recordAs(ctx context.Context, tx *gorm.DB, userID *snowflake.ID, teamID snowflake.ID, action string, metadata map[string]any) error {
	entry := activitydomain.Entry{
		TeamID:    teamID,
		UserID:    userID,
		Action:    action,
		IPAddress: requestmeta.ClientIPFromContext(ctx),
		Metadata:  metadata,
	}
	if requestID := requestmeta.RequestIDFromContext(ctx); requestID != "" {
		if entry.Metadata == nil {
			entry.Metadata = map[string]any{}
		}
		entry.Metadata["request_id"] = requestID
	}
	return s.recorder.Record(ctx, tx, entry)
}

func isRetryableConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") || // postgres serialization_failure
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked") // sqlite busy
}
