// Package domain contains types for team invitations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Invitation statuses. Transitions are monotonic: PENDING may move to
// ACCEPTED or REVOKED; terminal states never move back.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRevoked  = "REVOKED"
)

// Invitation tracks a pending invite to a team. Code is the opaque redemption
// token handed to the invitee.
type Invitation struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TeamID    snowflake.ID `gorm:"not null;index" json:"team_id"`
	Email     string       `gorm:"type:text;not null" json:"email"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	Code      string       `gorm:"type:text;not null;uniqueIndex:ux_invitations_code" json:"-"`
	Status    string       `gorm:"type:text;not null" json:"status"`
	InvitedBy snowflake.ID `gorm:"column:invited_by;not null;index" json:"invited_by"`
	InvitedAt time.Time    `gorm:"column:invited_at;not null;default:CURRENT_TIMESTAMP" json:"invited_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "invitations" }

// ResourceKind identifies the row kind for authorization decisions.
func (Invitation) ResourceKind() string { return "invitation" }

// TeamScope returns the tenant boundary this row belongs to.
func (i Invitation) TeamScope() snowflake.ID { return i.TeamID }

// Terminal reports whether status admits no further transition.
func Terminal(status string) bool {
	return status == StatusAccepted || status == StatusRevoked
}
