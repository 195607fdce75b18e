package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/teamgate/teamgate/internal/team/domain"
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

func (r *repository) CreateTeam(ctx context.Context, team domain.Team) error {
	return r.db.WithContext(ctx).Create(&team).Error
}

func (r *repository) GetTeam(ctx context.Context, id snowflake.ID) (*domain.Team, error) {
	var team domain.Team
	if err := r.db.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *repository) UpdateTeam(ctx context.Context, team domain.Team) error {
	return r.db.WithContext(ctx).
		Model(&domain.Team{}).
		Where("id = ?", team.ID).
		Updates(map[string]any{
			"name":       team.Name,
			"slug":       team.Slug,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) UpdateBilling(ctx context.Context, id snowflake.ID, update domain.BillingUpdate) error {
	fields := map[string]any{"updated_at": time.Now().UTC()}
	if update.CustomerID != nil {
		fields["billing_customer_id"] = nullable(update.CustomerID)
	}
	if update.SubscriptionID != nil {
		fields["billing_subscription_id"] = nullable(update.SubscriptionID)
	}
	if update.ProductID != nil {
		fields["billing_product_id"] = nullable(update.ProductID)
	}
	if update.PlanName != nil {
		fields["plan_name"] = nullable(update.PlanName)
	}
	if update.SubscriptionStatus != nil {
		fields["subscription_status"] = nullable(update.SubscriptionStatus)
	}
	return r.db.WithContext(ctx).
		Model(&domain.Team{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) DeleteTeam(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&domain.Team{}, "id = ?", id).Error
}

func (r *repository) ListTeamsByUser(ctx context.Context, userID snowflake.ID) ([]domain.TeamListItem, error) {
	var items []domain.TeamListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT t.id, t.name, t.slug, m.role, t.created_at
		 FROM teams t
		 JOIN team_members m ON m.team_id = t.id
		 WHERE m.user_id = ?
		 ORDER BY t.created_at ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) AddMember(ctx context.Context, member domain.TeamMember) error {
	return r.db.WithContext(ctx).Create(&member).Error
}

func (r *repository) RemoveMember(ctx context.Context, teamID, userID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Delete(&domain.TeamMember{}, "team_id = ? AND user_id = ?", teamID, userID).Error
}

func (r *repository) UpdateMemberRole(ctx context.Context, teamID, userID snowflake.ID, role string) error {
	return r.db.WithContext(ctx).
		Model(&domain.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Update("role", role).Error
}

func (r *repository) GetMember(ctx context.Context, teamID, userID snowflake.ID) (*domain.TeamMember, error) {
	var member domain.TeamMember
	err := r.db.WithContext(ctx).
		First(&member, "team_id = ? AND user_id = ?", teamID, userID).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, teamID snowflake.ID) ([]domain.TeamMember, error) {
	var members []domain.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("joined_at asc, id asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) DeleteMembersByTeam(ctx context.Context, teamID snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&domain.TeamMember{}, "team_id = ?", teamID).Error
}

// RoleOf joins users so soft-deleted members stop counting immediately.
func (r *repository) RoleOf(ctx context.Context, teamID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT m.role
		 FROM team_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.team_id = ? AND m.user_id = ? AND u.deleted_at IS NULL
		 LIMIT 1`,
		teamID,
		userID,
	).Scan(&row).Error
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(row.Role), nil
}

func nullable(value *string) any {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return strings.TrimSpace(*value)
}
