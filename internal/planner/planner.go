// Package planner maps a source descriptor and a reference time to the
// ordered set of artifacts due for a run. Planning is pure: it performs no
// I/O, and identical inputs always yield identical, identically ordered
// output.
package planner

import (
	"time"

	"github.com/floodcast/hydrofetch/internal/sources"
)

// Plan enumerates the artifacts of d that are due at now, searching back
// over the lookback horizon. Cycles are aligned to cadence boundaries of the
// UTC day and included only once they are at least the publication delay
// old; a cycle exactly at the delay threshold is included. Ordering is
// cycles newest-first, parameters in configured order, lead times ascending,
// so that dispatch can prioritize the freshest data.
func Plan(d *sources.Descriptor, now time.Time, lookback time.Duration) []sources.ArtifactID {
	now = now.UTC()
	delay := time.Duration(d.PublicationDelayHours) * time.Hour
	cadence := time.Duration(d.CadenceHours) * time.Hour

	var ids []sources.ArtifactID
	for cycle := alignCycle(now, d.CadenceHours); now.Sub(cycle) <= lookback; cycle = cycle.Add(-cadence) {
		if now.Sub(cycle) < delay {
			continue
		}
		ids = appendCycle(ids, d, cycle)
	}
	return ids
}

// PlanWindow enumerates artifacts for an externally supplied time window,
// overriding the lookback-from-now computation. The publication delay is
// still applied against now so the plan never requests data that cannot yet
// exist. Ordering matches Plan.
func PlanWindow(d *sources.Descriptor, start, end, now time.Time) []sources.ArtifactID {
	now = now.UTC()
	delay := time.Duration(d.PublicationDelayHours) * time.Hour
	cadence := time.Duration(d.CadenceHours) * time.Hour

	var ids []sources.ArtifactID
	for cycle := alignCycle(end.UTC(), d.CadenceHours); !cycle.Before(start.UTC()); cycle = cycle.Add(-cadence) {
		if now.Sub(cycle) < delay {
			continue
		}
		ids = appendCycle(ids, d, cycle)
	}
	return ids
}

// alignCycle returns the most recent cycle timestamp at or before t, aligned
// to cadence boundaries of the UTC day (00, 06, 12, 18 for a 6 h cadence).
func alignCycle(t time.Time, cadenceHours int) time.Time {
	t = t.UTC()
	hour := t.Hour()
	if cadenceHours < 24 {
		hour = cadenceHours * (hour / cadenceHours)
	} else {
		hour = 0
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, time.UTC)
}

func appendCycle(ids []sources.ArtifactID, d *sources.Descriptor, cycle time.Time) []sources.ArtifactID {
	for _, p := range d.Parameters {
		if !d.IsForecast() {
			ids = append(ids, sources.NewArtifactID(d.Name, cycle, p.FirstLeadTime, p.Code))
			continue
		}
		for lead := p.FirstLeadTime; lead <= d.LeadTimeMaxHours; lead += d.TimestepHours {
			ids = append(ids, sources.NewArtifactID(d.Name, cycle, lead, p.Code))
		}
	}
	return ids
}
