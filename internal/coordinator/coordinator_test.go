package coordinator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/floodcast/hydrofetch/internal/fetch"
	"github.com/floodcast/hydrofetch/internal/ratelimit"
	"github.com/floodcast/hydrofetch/internal/resolver"
	"github.com/floodcast/hydrofetch/internal/sources"
)

var testCycle = time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)

func testDescriptor(baseURL string) *sources.Descriptor {
	return &sources.Descriptor{
		Name:                  "TEST",
		Family:                sources.FamilyRadarComposite,
		CadenceHours:          6,
		PublicationDelayHours: 6,
		Lookback:              24 * time.Hour,
		Parameters:            []sources.Parameter{{Code: "A"}},
		URLTemplate:           baseURL + "/{filename}",
		FilenameTemplate:      "{param}_{yyyymmdd}{HH}.bin",
	}
}

func testOptions(t *testing.T, server *httptest.Server) Options {
	t.Helper()
	return Options{
		Workers:  2,
		Client:   server.Client(),
		Resolver: resolver.New(t.TempDir()),
		Policy: ratelimit.RetryPolicy{
			MaxRetries:     3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			Multiplier:     2.0,
		},
		Now: func() time.Time { return testCycle.Add(9 * time.Hour) },
	}
}

func ids(params ...string) []sources.ArtifactID {
	out := make([]sources.ArtifactID, len(params))
	for i, p := range params {
		out[i] = sources.NewArtifactID("TEST", testCycle, 0, p)
	}
	return out
}

// Pool of 2 over 5 artifacts: one fails permanently, one needs two retries,
// the rest succeed. Every identifier must end with exactly one outcome and
// the failures must not disturb each other.
func TestRunMixedOutcomes(t *testing.T) {
	var flaky atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/D_"):
			http.Error(w, "no", http.StatusForbidden)
		case strings.HasPrefix(r.URL.Path, "/C_"):
			if flaky.Add(1) <= 2 {
				http.Error(w, "busy", http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("payload"))
		default:
			_, _ = w.Write([]byte("payload"))
		}
	}))
	defer server.Close()

	d := testDescriptor(server.URL)
	coord := New(testOptions(t, server))

	planned := ids("A", "B", "C", "D", "E")
	rep, err := coord.Run(context.Background(), d, planned)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if rep.Len() != 5 {
		t.Fatalf("expected 5 outcomes, got %d", rep.Len())
	}
	s := rep.Summarize()
	if s.Fetched != 4 || s.Permanent != 1 {
		t.Fatalf("expected 4 fetched and 1 permanent, got %+v", s)
	}

	o, ok := rep.Outcome(planned[2])
	if !ok || o.Kind != fetch.KindFetched {
		t.Fatalf("artifact C should succeed after retries, got %v", o)
	}
	if o.Attempts != 3 {
		t.Fatalf("artifact C should take 3 attempts, got %d", o.Attempts)
	}
}

func TestRunDeadlineRecordsEveryArtifact(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	d := testDescriptor(server.URL)
	coord := New(testOptions(t, server))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := coord.Run(ctx, d, ids("A", "B", "C"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if rep.Len() != 3 {
		t.Fatalf("every dispatched artifact needs an outcome, got %d of 3", rep.Len())
	}
	for id, o := range rep.Outcomes() {
		if o.Kind != fetch.KindTransient {
			t.Fatalf("%s: expected transient past the deadline, got %s", id, o.Kind)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("no requests should go out past the deadline, got %d", calls.Load())
	}
}

func TestRunResolutionFailureIsIsolated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	d := testDescriptor(server.URL)
	coord := New(testOptions(t, server))

	// The empty parameter cannot satisfy the {param} placeholder.
	planned := append(ids("A"), sources.NewArtifactID("TEST", testCycle, 0, ""))
	rep, err := coord.Run(context.Background(), d, planned)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	s := rep.Summarize()
	if s.Total != 2 || s.Fetched != 1 || s.Permanent != 1 {
		t.Fatalf("expected 1 fetched and 1 permanent, got %+v", s)
	}
}

func TestRunDiscoveryGate(t *testing.T) {
	var mu sync.Mutex
	requested := make(map[string]int)

	mux := http.NewServeMux()
	mux.HandleFunc("/radar/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested[r.URL.Path]++
		mu.Unlock()

		switch r.URL.Path {
		case "/radar/":
			_, _ = w.Write([]byte(`<html><pre><a href="A_2024031006.bin">A_2024031006.bin</a></pre></html>`))
		default:
			_, _ = w.Write([]byte("payload"))
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := testDescriptor(server.URL + "/radar")
	d.DiscoveryPattern = `\.bin$`
	coord := New(testOptions(t, server))

	planned := ids("A", "B")
	rep, err := coord.Run(context.Background(), d, planned)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if o, _ := rep.Outcome(planned[0]); o.Kind != fetch.KindFetched {
		t.Fatalf("listed artifact should be fetched, got %s", o.Kind)
	}
	if o, _ := rep.Outcome(planned[1]); o.Kind != fetch.KindNotYetPublished {
		t.Fatalf("unlisted artifact should be not_yet_published, got %s", o.Kind)
	}

	mu.Lock()
	defer mu.Unlock()
	if requested["/radar/B_2024031006.bin"] != 0 {
		t.Fatalf("unlisted artifact must not be probed directly")
	}
	if requested["/radar/"] != 1 {
		t.Fatalf("the directory index should be fetched once, got %d", requested["/radar/"])
	}
}

func TestRunWindowSpansTheRun(t *testing.T) {
	const serverDelay = 50 * time.Millisecond
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(serverDelay)
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	d := testDescriptor(server.URL)
	opts := testOptions(t, server)
	opts.Now = time.Now
	coord := New(opts)

	rep, err := coord.Run(context.Background(), d, ids("A", "B"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	start, end := rep.Window()
	if end.IsZero() {
		t.Fatalf("finalized report must carry an end timestamp")
	}
	if end.Sub(start) < serverDelay {
		t.Fatalf("end stamp taken too early: window %v for a run of at least %v", end.Sub(start), serverDelay)
	}
}

func TestRunDiscoveryGateWithProtectedIndex(t *testing.T) {
	var mu sync.Mutex
	requested := make(map[string]int)

	mux := http.NewServeMux()
	mux.HandleFunc("/radar/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested[r.URL.Path]++
		mu.Unlock()

		if user, pass, ok := r.BasicAuth(); !ok || user != "alice" || pass != "secret" {
			http.Error(w, "no", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/radar/":
			_, _ = w.Write([]byte(`<html><pre><a href="A_2024031006.bin">A_2024031006.bin</a></pre></html>`))
		default:
			_, _ = w.Write([]byte("payload"))
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := testDescriptor(server.URL + "/radar")
	d.DiscoveryPattern = `\.bin$`
	d.RequiresAuth = true
	opts := testOptions(t, server)
	opts.Credentials = &fetch.Credentials{Username: "alice", Password: "secret"}
	coord := New(opts)

	planned := ids("A", "B")
	rep, err := coord.Run(context.Background(), d, planned)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if o, _ := rep.Outcome(planned[0]); o.Kind != fetch.KindFetched {
		t.Fatalf("listed artifact should be fetched, got %s (%s)", o.Kind, o.Reason)
	}
	if o, _ := rep.Outcome(planned[1]); o.Kind != fetch.KindNotYetPublished {
		t.Fatalf("unlisted artifact should be gated, got %s", o.Kind)
	}

	mu.Lock()
	defer mu.Unlock()
	if requested["/radar/B_2024031006.bin"] != 0 {
		t.Fatalf("the gate must hold behind a protected index too")
	}
}

func TestRunDeduplicatesIdentifiers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	d := testDescriptor(server.URL)
	coord := New(testOptions(t, server))

	rep, err := coord.Run(context.Background(), d, ids("A", "A", "B"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Len() != 2 {
		t.Fatalf("duplicate identifiers must collapse to one outcome each, got %d", rep.Len())
	}
}
