// Package models defines the staging-catalog tables. The catalog records
// what has been fetched so re-runs are idempotent and the downstream
// pipeline can query staged artifacts without touching the filesystem.
package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// DataSource is the registry row for one configured source.
type DataSource struct {
	bun.BaseModel `bun:"table:data_sources,alias:ds"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Name         string     `bun:"name,unique,notnull" json:"name"`
	Family       string     `bun:"family,notnull" json:"family"`
	LastAccessed *time.Time `bun:"last_accessed" json:"last_accessed,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Validate checks required registry fields.
func (s *DataSource) Validate() error {
	if s.Name == "" {
		return errors.New("source name is required")
	}
	if s.Family == "" {
		return errors.New("source family is required")
	}
	return nil
}
