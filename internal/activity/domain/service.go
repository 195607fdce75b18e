package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/teamgate/teamgate/pkg/db/pagination"
)

// Entry describes one mutation to record. Action text is supplied by the
// caller's business logic; the recorder never infers it.
type Entry struct {
	TeamID    snowflake.ID
	UserID    *snowflake.ID
	Action    string
	IPAddress string
	Metadata  map[string]any
}

type ListRequest struct {
	pagination.Pagination
	TeamID  snowflake.ID
	UserID  *snowflake.ID
	Action  string
	StartAt *time.Time
	EndAt   *time.Time
}

type ListResponse struct {
	pagination.PageInfo
	ActivityLogs []ActivityLog `json:"activity_logs"`
}

// Recorder appends audit entries. Record must run on the caller's transaction
// so a recording failure rolls the whole mutation back.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *ActivityLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*ActivityLog, error)
}

var (
	ErrInvalidTeam      = errors.New("invalid_team")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
