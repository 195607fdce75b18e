package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/teamgate/teamgate/internal/invitation/domain"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invitation domain.Invitation) error {
	return r.db.WithContext(ctx).Create(&invitation).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Invitation, error) {
	var invitation domain.Invitation
	if err := r.db.WithContext(ctx).First(&invitation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) ListByTeam(ctx context.Context, teamID snowflake.ID) ([]domain.Invitation, error) {
	var invitations []domain.Invitation
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("invited_at desc, id desc").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

// TransitionStatus is a compare-and-set on status; RowsAffected == 0 means
// the invitation was not in fromStatus anymore.
func (r *repository) TransitionStatus(ctx context.Context, id snowflake.ID, fromStatus, toStatus string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]any{
			"status":     toStatus,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) DeletePendingByTeam(ctx context.Context, teamID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Delete(&domain.Invitation{}, "team_id = ? AND status = ?", teamID, domain.StatusPending).Error
}
