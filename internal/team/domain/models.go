// Package domain contains persistence models for the team service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Team-level membership roles. Free-form tags; these are the two the seeded
// write policy knows about.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Team represents a tenant. Billing fields are written out-of-band by the
// billing collaborator; when present the customer and subscription identifiers
// are globally unique.
type Team struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	Name               string       `gorm:"type:text;not null" json:"name"`
	Slug               string       `gorm:"type:text;not null;uniqueIndex:ux_teams_slug" json:"slug"`
	BillingCustomerID  *string      `gorm:"type:text;uniqueIndex:ux_teams_billing_customer" json:"billing_customer_id,omitempty"`
	BillingSubID       *string      `gorm:"column:billing_subscription_id;type:text;uniqueIndex:ux_teams_billing_subscription" json:"billing_subscription_id,omitempty"`
	BillingProductID   *string      `gorm:"type:text" json:"billing_product_id,omitempty"`
	PlanName           *string      `gorm:"type:text" json:"plan_name,omitempty"`
	SubscriptionStatus *string      `gorm:"type:text" json:"subscription_status,omitempty"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Team) TableName() string { return "teams" }

// ResourceKind identifies the row kind for authorization decisions.
func (Team) ResourceKind() string { return "team" }

// TeamScope returns the tenant boundary this row belongs to.
func (t Team) TeamScope() snowflake.ID { return t.ID }

// TeamMember represents membership of a user in a team. A (team, user) pair
// is unique: a user holds at most one role per team. This table is the sole
// source of truth for authorization decisions.
type TeamMember struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TeamID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_team_user,priority:1" json:"team_id"`
	UserID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_team_user,priority:2" json:"user_id"`
	Role     string       `gorm:"type:text;not null" json:"role"`
	JoinedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
}

// TableName sets the database table name.
func (TeamMember) TableName() string { return "team_members" }

// ResourceKind identifies the row kind for authorization decisions.
func (TeamMember) ResourceKind() string { return "member" }

// TeamScope returns the tenant boundary this row belongs to.
func (m TeamMember) TeamScope() snowflake.ID { return m.TeamID }

// TeamListItem is a team joined with the requesting user's role in it.
type TeamListItem struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	Role      string       `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
}

// BillingUpdate carries the fields the billing collaborator may set.
type BillingUpdate struct {
	CustomerID         *string
	SubscriptionID     *string
	ProductID          *string
	PlanName           *string
	SubscriptionStatus *string
}
