package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// DownloadRun records one coordinator invocation for one source, with its
// planned window and per-kind outcome counts.
type DownloadRun struct {
	bun.BaseModel `bun:"table:download_runs,alias:dr"`

	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	RunID           string     `bun:"run_id,unique,notnull" json:"run_id"`
	Source          string     `bun:"source,notnull" json:"source"`
	WindowStart     time.Time  `bun:"window_start,notnull" json:"window_start"`
	WindowEnd       time.Time  `bun:"window_end,notnull" json:"window_end"`
	StartTime       time.Time  `bun:"start_time,notnull" json:"start_time"`
	EndTime         *time.Time `bun:"end_time" json:"end_time,omitempty"`
	Status          string     `bun:"status,notnull" json:"status"`
	Planned         int        `bun:"planned,default:0" json:"planned"`
	Fetched         int        `bun:"fetched,default:0" json:"fetched"`
	NotYetPublished int        `bun:"not_yet_published,default:0" json:"not_yet_published"`
	NotFound        int        `bun:"not_found,default:0" json:"not_found"`
	Transient       int        `bun:"transient_errors,default:0" json:"transient_errors"`
	Permanent       int        `bun:"permanent_errors,default:0" json:"permanent_errors"`
	BytesFetched    int64      `bun:"bytes_fetched,default:0" json:"bytes_fetched"`
	ConfigSnapshot  *string    `bun:"config_snapshot" json:"config_snapshot,omitempty"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
