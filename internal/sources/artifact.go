package sources

import (
	"fmt"
	"time"
)

// ArtifactID identifies one retrievable remote file: a single
// (source, cycle, lead time, parameter) combination. It is comparable and
// serves as the idempotency key for a run; planning the same inputs twice
// yields the same IDs.
type ArtifactID struct {
	Source    string
	Cycle     time.Time
	LeadHours int
	Parameter string
}

// NewArtifactID builds an ID with the cycle normalized to UTC so that two
// IDs for the same instant compare equal regardless of the input location.
func NewArtifactID(source string, cycle time.Time, leadHours int, parameter string) ArtifactID {
	return ArtifactID{
		Source:    source,
		Cycle:     cycle.UTC().Truncate(time.Hour),
		LeadHours: leadHours,
		Parameter: parameter,
	}
}

// ValidTime is the instant the artifact's data applies to.
func (id ArtifactID) ValidTime() time.Time {
	return id.Cycle.Add(time.Duration(id.LeadHours) * time.Hour)
}

// String renders the canonical form used in logs and the catalog,
// e.g. "HRDPS/2024031006+003/TMP_AGL-2m".
func (id ArtifactID) String() string {
	return fmt.Sprintf("%s/%s+%03d/%s", id.Source, id.Cycle.UTC().Format("2006010215"), id.LeadHours, id.Parameter)
}
