package models

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/floodcast/hydrofetch/internal/fetch"
	"github.com/floodcast/hydrofetch/internal/sources"
)

// Artifact is the catalog row for one (source, cycle, lead, parameter)
// combination. The identity columns form a unique key, so re-running a plan
// updates outcomes in place rather than accumulating duplicates.
type Artifact struct {
	bun.BaseModel `bun:"table:artifacts,alias:a"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Source    string    `bun:"source,notnull,unique:artifact_identity" json:"source"`
	Cycle     time.Time `bun:"cycle,notnull,unique:artifact_identity" json:"cycle"`
	LeadHours int       `bun:"lead_hours,notnull,unique:artifact_identity" json:"lead_hours"`
	Parameter string    `bun:"parameter,notnull,unique:artifact_identity" json:"parameter"`
	Outcome   string    `bun:"outcome,notnull" json:"outcome"`
	Bytes     int64     `bun:"bytes,default:0" json:"bytes"`
	LocalPath *string   `bun:"local_path" json:"local_path,omitempty"`
	Attempts  int       `bun:"attempts,default:0" json:"attempts"`
	Reason    *string   `bun:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// BeforeUpdate updates the timestamp on modifications.
func (a *Artifact) BeforeUpdate(ctx context.Context, query *bun.UpdateQuery) error {
	a.UpdatedAt = time.Now()
	return nil
}

// Validate checks required identity fields.
func (a *Artifact) Validate() error {
	if a.Source == "" {
		return errors.New("source is required")
	}
	if a.Cycle.IsZero() {
		return errors.New("cycle is required")
	}
	if a.Parameter == "" {
		return errors.New("parameter is required")
	}
	if a.Outcome == "" {
		return errors.New("outcome is required")
	}
	return nil
}

// ArtifactFromOutcome maps one run outcome to its catalog row.
func ArtifactFromOutcome(id sources.ArtifactID, o fetch.Outcome) *Artifact {
	a := &Artifact{
		Source:    id.Source,
		Cycle:     id.Cycle,
		LeadHours: id.LeadHours,
		Parameter: id.Parameter,
		Outcome:   string(o.Kind),
		Bytes:     o.Bytes,
		Attempts:  o.Attempts,
	}
	if o.LocalPath != "" {
		a.LocalPath = &o.LocalPath
	}
	if o.Reason != "" {
		a.Reason = &o.Reason
	}
	return a
}
