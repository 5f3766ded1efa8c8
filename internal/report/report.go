// Package report accumulates per-artifact outcomes into the run summary
// consumed by the downstream forecasting framework.
package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/floodcast/hydrofetch/internal/fetch"
	"github.com/floodcast/hydrofetch/internal/sources"
)

// RunReport maps every dispatched artifact to exactly one outcome. It is
// owned and mutated by the download coordinator; consumers receive it only
// after Finalize, when it is frozen.
type RunReport struct {
	mu        sync.Mutex
	source    string
	startedAt time.Time
	endedAt   time.Time
	outcomes  map[sources.ArtifactID]fetch.Outcome
	finalized bool
}

// New creates an empty report for one source's run.
func New(source string, startedAt time.Time) *RunReport {
	return &RunReport{
		source:    source,
		startedAt: startedAt,
		outcomes:  make(map[sources.ArtifactID]fetch.Outcome),
	}
}

// Record stores the outcome for id. Recording the same identifier twice, or
// recording after Finalize, is a programming error and is rejected so it
// cannot silently corrupt the run summary.
func (r *RunReport) Record(id sources.ArtifactID, outcome fetch.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return fmt.Errorf("record %s: report already finalized", id)
	}
	if _, exists := r.outcomes[id]; exists {
		return fmt.Errorf("record %s: outcome already recorded", id)
	}
	r.outcomes[id] = outcome
	return nil
}

// Finalize freezes the report and stamps the run end time.
func (r *RunReport) Finalize(endedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true
	r.endedAt = endedAt
}

// Source returns the source name the report covers.
func (r *RunReport) Source() string { return r.source }

// Window returns the run start and end timestamps. The end is zero until
// Finalize.
func (r *RunReport) Window() (start, end time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startedAt, r.endedAt
}

// Len returns the number of recorded outcomes.
func (r *RunReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// Outcome returns the recorded outcome for id, if any.
func (r *RunReport) Outcome(id sources.ArtifactID) (fetch.Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.outcomes[id]
	return o, ok
}

// Outcomes returns a copy of the outcome map, safe to hold after the
// coordinator moves on.
func (r *RunReport) Outcomes() map[sources.ArtifactID]fetch.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[sources.ArtifactID]fetch.Outcome, len(r.outcomes))
	for id, o := range r.outcomes {
		out[id] = o
	}
	return out
}

// Summary aggregates outcome counts per kind.
type Summary struct {
	Total           int
	Fetched         int
	NotYetPublished int
	NotFound        int
	Transient       int
	Permanent       int
	BytesFetched    int64
}

// Failed returns the number of outcomes that count as failures.
func (s Summary) Failed() int {
	return s.NotFound + s.Transient + s.Permanent
}

// Summarize counts outcomes per kind.
func (r *RunReport) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Summary
	for _, o := range r.outcomes {
		s.Total++
		switch o.Kind {
		case fetch.KindFetched:
			s.Fetched++
			s.BytesFetched += o.Bytes
		case fetch.KindNotYetPublished:
			s.NotYetPublished++
		case fetch.KindNotFound:
			s.NotFound++
		case fetch.KindTransient:
			s.Transient++
		case fetch.KindPermanent:
			s.Permanent++
		}
	}
	return s
}
