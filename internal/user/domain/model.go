// Package domain contains core types for the user service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Global role tags. Team-level roles live on the membership row.
const (
	RoleMember = "member"
	RoleOwner  = "owner"
)

// User represents a system user account. DeletedAt marks a soft delete: the
// row is retained for audit history but the user can no longer act as a
// principal or appear in listings.
type User struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"type:text" json:"name"`
	Email        string            `gorm:"type:text;not null;uniqueIndex:ux_users_email" json:"email"`
	PasswordHash string            `gorm:"type:text;not null" json:"-"`
	Role         string            `gorm:"type:text;not null;default:'member'" json:"role"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    *time.Time        `gorm:"column:deleted_at;index" json:"-"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// ResourceKind identifies the row kind for authorization decisions.
func (User) ResourceKind() string { return "user" }

// UserScope returns the identity that owns this row.
func (u User) UserScope() snowflake.ID { return u.ID }

// Deleted reports whether the user is soft-deleted.
func (u User) Deleted() bool { return u.DeletedAt != nil }
