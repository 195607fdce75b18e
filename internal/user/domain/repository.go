package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user User) error
	SoftDelete(ctx context.Context, id snowflake.ID, at time.Time) error
	// IsActive reports whether the user exists and is not soft-deleted.
	IsActive(ctx context.Context, id snowflake.ID) (bool, error)
}
