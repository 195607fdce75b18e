// Package domain contains types for the append-only activity log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActivityLog is one audit entry. Rows are never updated or deleted by the
// core; a nil UserID means the actor was the system.
type ActivityLog struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	TeamID    snowflake.ID      `gorm:"not null;index" json:"team_id"`
	UserID    *snowflake.ID     `gorm:"index" json:"user_id,omitempty"`
	Action    string            `gorm:"type:text;not null" json:"action"`
	IPAddress *string           `gorm:"type:text" json:"ip_address,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName sets the database table name.
func (ActivityLog) TableName() string { return "activity_logs" }

// ResourceKind identifies the row kind for authorization decisions.
func (ActivityLog) ResourceKind() string { return "activity" }

// TeamScope returns the tenant boundary this row belongs to.
func (a ActivityLog) TeamScope() snowflake.ID { return a.TeamID }

// ActivityCursor is the keyset position for list pagination.
type ActivityCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ListFilter narrows an activity listing.
type ListFilter struct {
	TeamID  snowflake.ID
	UserID  *snowflake.ID
	Action  string
	StartAt *time.Time
	EndAt   *time.Time
	Cursor  *ActivityCursor
	Limit   int
}
