package store

import (
	"context"

	activitydomain "github.com/teamgate/teamgate/internal/activity/domain"
	"github.com/teamgate/teamgate/pkg/apperr"
)

// ListActivity returns the team's audit trail to its members.
func (s *Store) ListActivity(ctx context.Context, req activitydomain.ListRequest) (activitydomain.ListResponse, error) {
	const op = "store.ListActivity"

	p, err := s.resolve(ctx, op)
	if err != nil {
		return activitydomain.ListResponse{}, err
	}
	if err := s.requireRead(ctx, p, activitydomain.ActivityLog{TeamID: req.TeamID}, op); err != nil {
		return activitydomain.ListResponse{}, err
	}

	resp, err := s.recorder.List(ctx, req)
	if err != nil {
		switch err {
		case activitydomain.ErrInvalidPageToken, activitydomain.ErrInvalidTimeRange, activitydomain.ErrInvalidTeam:
			return activitydomain.ListResponse{}, apperr.E(apperr.ErrInvalid, op, err)
		}
		return activitydomain.ListResponse{}, s.storageErr(op, err)
	}
	return resp, nil
}
