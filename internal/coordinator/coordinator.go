// Package coordinator owns the bounded worker pool that turns a planned
// artifact list into a finalized run report.
package coordinator

import (
	"context"
	"log"
	"net/http"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/floodcast/hydrofetch/internal/fetch"
	"github.com/floodcast/hydrofetch/internal/ratelimit"
	"github.com/floodcast/hydrofetch/internal/report"
	"github.com/floodcast/hydrofetch/internal/resolver"
	"github.com/floodcast/hydrofetch/internal/sources"
)

// Options configures a coordinator. The limiter and retry policy are shared
// across all artifacts of one invocation; workers never build their own.
type Options struct {
	// Workers is the maximum number of concurrent fetches. Default 4.
	Workers int

	// Client is the HTTP client shared by all workers and listing
	// requests. Default has a 60-second per-request timeout.
	Client *http.Client

	// Limiter paces requests to the source's host. Default unlimited.
	Limiter ratelimit.Limiter

	// Policy is the retry/backoff policy for transient failures.
	Policy ratelimit.RetryPolicy

	// Resolver expands artifact identifiers to addresses and paths.
	Resolver *resolver.Resolver

	// Now supplies the clock, injected so planning-dependent
	// classification is reproducible in tests. Default time.Now.
	Now func() time.Time

	// Credentials are attached to requests for sources requiring auth.
	Credentials *fetch.Credentials
}

// Coordinator dispatches fetch tasks for planned artifacts and aggregates
// their outcomes. It owns the worker-pool slots and the per-source rate
// limiter exclusively.
type Coordinator struct {
	opts Options
}

// New creates a coordinator, applying defaults for unset options.
func New(opts Options) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Resolver == nil {
		opts.Resolver = resolver.New(".")
	}
	return &Coordinator{opts: opts}
}

type task struct {
	id        sources.ArtifactID
	url       string
	localPath string
	recent    bool
}

// Run fetches every artifact in ids and returns the finalized report.
// Dispatch follows planner order so the freshest data is scheduled first;
// completion order is unconstrained. Every identifier ends with exactly one
// recorded outcome: resolution failures become PermanentError, artifacts
// still pending when ctx expires become TransientError, and a single
// artifact's failure never aborts the rest of the run.
func (c *Coordinator) Run(ctx context.Context, d *sources.Descriptor, ids []sources.ArtifactID) (*report.RunReport, error) {
	rep := report.New(d.Name, c.opts.Now())
	// Read the clock inside the closure so the end stamp reflects run
	// completion, not the moment the defer was set up.
	defer func() { rep.Finalize(c.opts.Now()) }()

	tasks := c.prepare(ctx, d, ids, rep)

	worker := fetch.NewWorker(c.opts.Client, c.opts.Limiter, c.opts.Policy)
	if c.opts.Credentials != nil {
		worker = worker.WithCredentials(*c.opts.Credentials)
	}

	jobs := make(chan task)
	var wg sync.WaitGroup
	for i := 0; i < c.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				var outcome fetch.Outcome
				if ctx.Err() != nil {
					outcome = fetch.Transient(0, "run deadline exceeded")
				} else {
					outcome = worker.Fetch(ctx, fetch.Request{
						ID:        t.id,
						URL:       t.url,
						LocalPath: t.localPath,
						MinBytes:  d.MinBytes,
						Recent:    t.recent,
						Check:     fetch.CheckFor(d.Family),
					})
				}
				c.record(rep, t.id, outcome)
			}
		}()
	}

	// All tasks are always fed; workers drain expired ones quickly, so
	// every dispatched identifier gets an outcome even past the deadline.
	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	return rep, nil
}

// prepare resolves identifiers in planner order and applies the discovery
// gate. Identifiers that resolve are returned as tasks; the rest get their
// outcome recorded here.
func (c *Coordinator) prepare(ctx context.Context, d *sources.Descriptor, ids []sources.ArtifactID, rep *report.RunReport) []task {
	now := c.opts.Now().UTC()
	recentHorizon := time.Duration(d.PublicationDelayHours+d.CadenceHours) * time.Hour

	var pattern *regexp.Regexp
	if d.DiscoveryPattern != "" {
		// Descriptor validation compiled this already.
		pattern = regexp.MustCompile(d.DiscoveryPattern)
	}
	listings := make(map[string]map[string]bool)

	seen := make(map[sources.ArtifactID]bool, len(ids))
	tasks := make([]task, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		url, localPath, err := c.opts.Resolver.Resolve(d, id)
		if err != nil {
			c.record(rep, id, fetch.Permanent(err.Error()))
			continue
		}

		if pattern != nil {
			if listing := c.listing(ctx, listings, url, pattern); listing != nil && !listing[path.Base(url)] {
				c.record(rep, id, fetch.NotYetPublished())
				continue
			}
		}

		tasks = append(tasks, task{
			id:        id,
			url:       url,
			localPath: localPath,
			recent:    now.Sub(id.Cycle) <= recentHorizon,
		})
	}
	return tasks
}

// listing returns the cached directory index for url's parent, fetching it
// on first use. A listing that cannot be fetched disables the gate for that
// directory; the artifacts are then probed directly.
func (c *Coordinator) listing(ctx context.Context, cache map[string]map[string]bool, url string, pattern *regexp.Regexp) map[string]bool {
	i := strings.LastIndexByte(url, '/')
	if i < 0 {
		return nil
	}
	dir := url[:i+1]

	if listing, ok := cache[dir]; ok {
		return listing
	}
	listing, err := fetch.ListIndex(ctx, c.opts.Client, dir, pattern, c.opts.Credentials)
	if err != nil {
		log.Printf("Listing %s unavailable, probing directly: %v", dir, err)
		listing = nil
	}
	cache[dir] = listing
	return listing
}

func (c *Coordinator) record(rep *report.RunReport, id sources.ArtifactID, outcome fetch.Outcome) {
	if err := rep.Record(id, outcome); err != nil {
		log.Printf("Dropping duplicate outcome: %v", err)
	}
}
