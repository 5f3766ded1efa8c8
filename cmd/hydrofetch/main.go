package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"

	"github.com/floodcast/hydrofetch/internal/config"
	"github.com/floodcast/hydrofetch/internal/coordinator"
	"github.com/floodcast/hydrofetch/internal/database"
	"github.com/floodcast/hydrofetch/internal/fetch"
	"github.com/floodcast/hydrofetch/internal/migrations"
	"github.com/floodcast/hydrofetch/internal/models"
	"github.com/floodcast/hydrofetch/internal/planner"
	"github.com/floodcast/hydrofetch/internal/ratelimit"
	"github.com/floodcast/hydrofetch/internal/repositories"
	"github.com/floodcast/hydrofetch/internal/resolver"
	"github.com/floodcast/hydrofetch/internal/sources"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitInvalidArgs = 2
	ExitConfig      = 3
	ExitRunFailed   = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("hydrofetch", flag.ExitOnError)

	configPath := fs.String("config", "settings.yaml", "Path to the settings file")
	sourceList := fs.String("source", "", "Comma-separated source names (default: all configured)")
	startStr := fs.String("start", "", "Explicit window start (RFC 3339), overrides lookback")
	endStr := fs.String("end", "", "Explicit window end (RFC 3339), requires -start")
	dryRun := fs.Bool("dry-run", false, "Print the planned artifacts without fetching")
	dbPath := fs.String("db", "", "Staging catalog path (overrides settings)")
	outDir := fs.String("out", "", "Staging directory root (overrides settings)")
	workers := fs.Int("workers", 0, "Maximum fetch concurrency (overrides settings)")
	debug := fs.Bool("debug", false, "Verbose catalog query logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: hydrofetch [options]

Fetch the hydromet artifacts due for the current run, per the settings file.
Credentials for protected sources come from the environment (or a .env
file) as <SOURCE>_USERNAME / <SOURCE>_PASSWORD.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	// Credentials may live in a .env file during development; a missing
	// file is fine.
	_ = godotenv.Load()

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfig
	}
	if *outDir != "" {
		settings.OutputDir = *outDir
	}
	if *dbPath != "" {
		settings.Database = *dbPath
	}
	if *workers > 0 {
		settings.Workers = *workers
	}

	descriptors, err := settings.Descriptors()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfig
	}
	descriptors, err = selectSources(descriptors, *sourceList)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return ExitInvalidArgs
	}

	var window *timeWindow
	if *startStr != "" || *endStr != "" {
		window, err = parseWindow(*startStr, *endStr)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return ExitInvalidArgs
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if timeout := settings.RunTimeout(); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt, finishing in-flight fetches...")
		cancel()
	}()

	var db *bun.DB
	if settings.Database != "" && !*dryRun {
		db, err = database.NewDB(settings.Database, *debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open catalog: %v\n", err)
			return ExitGeneral
		}
		defer func() {
			_ = db.Close()
		}()
		if err := migrations.RunMigrations(ctx, db); err != nil {
			fmt.Fprintf(os.Stderr, "Error: migrate catalog: %v\n", err)
			return ExitGeneral
		}
	}

	now := time.Now().UTC()
	res := resolver.New(settings.OutputDir)
	client := &http.Client{Timeout: 60 * time.Second}

	anyFailed := false
	for i := range descriptors {
		d := &descriptors[i]

		ids := planIDs(d, now, window)
		if *dryRun {
			fmt.Printf("%s: %d artifacts due\n", d.Name, len(ids))
			for _, id := range ids {
				fmt.Println(" ", id)
			}
			continue
		}

		failed, err := runSource(ctx, db, d, ids, settings, res, client, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", d.Name, err)
			return ExitGeneral
		}
		anyFailed = anyFailed || failed
	}

	if anyFailed {
		return ExitRunFailed
	}
	return ExitSuccess
}

// runSource executes one source's run end to end and reports whether any
// artifact failed.
func runSource(ctx context.Context, db *bun.DB, d *sources.Descriptor, ids []sources.ArtifactID,
	settings *config.Settings, res *resolver.Resolver, client *http.Client, now time.Time) (bool, error) {

	rlCfg := settings.RateLimit(d.Name)
	coord := coordinator.New(coordinator.Options{
		Workers:     settings.Workers,
		Client:      client,
		Limiter:     ratelimit.NewLimiter(rlCfg),
		Policy:      ratelimit.PolicyFromConfig(rlCfg),
		Resolver:    res,
		Credentials: credentials(d),
	})

	runID := fmt.Sprintf("%s-%s", d.Name, now.Format("20060102T150405Z"))
	log.Printf("Run %s: %d artifacts due", runID, len(ids))

	var windowStart, windowEnd time.Time
	if len(ids) > 0 {
		windowStart = ids[len(ids)-1].Cycle
		windowEnd = ids[0].Cycle
	}

	if db != nil {
		if err := repositories.TouchSource(ctx, db, d.Name, d.Family, now); err != nil {
			return false, fmt.Errorf("touch source: %w", err)
		}
		err := repositories.RecordRun(ctx, db, &models.DownloadRun{
			RunID:       runID,
			Source:      d.Name,
			WindowStart: windowStart,
			WindowEnd:   windowEnd,
			StartTime:   now,
			Status:      models.RunStatusRunning,
			Planned:     len(ids),
		})
		if err != nil {
			return false, fmt.Errorf("record run: %w", err)
		}
	}

	rep, err := coord.Run(ctx, d, ids)
	if err != nil {
		return false, err
	}

	s := rep.Summarize()
	log.Printf("Run %s: %d fetched (%d bytes), %d pending publication, %d not found, %d transient, %d permanent",
		runID, s.Fetched, s.BytesFetched, s.NotYetPublished, s.NotFound, s.Transient, s.Permanent)

	if db != nil {
		if err := repositories.UpsertArtifacts(ctx, db, rep); err != nil {
			return false, fmt.Errorf("upsert artifacts: %w", err)
		}
		if err := repositories.CompleteRun(ctx, db, runID, rep); err != nil {
			return false, fmt.Errorf("complete run: %w", err)
		}
	}

	return s.Failed() > 0, nil
}

func planIDs(d *sources.Descriptor, now time.Time, window *timeWindow) []sources.ArtifactID {
	if window != nil {
		return planner.PlanWindow(d, window.start, window.end, now)
	}
	return planner.Plan(d, now, d.Lookback)
}

// credentials looks up <SOURCE>_USERNAME / <SOURCE>_PASSWORD for sources
// that require auth. Secret provisioning is the operator's concern.
func credentials(d *sources.Descriptor) *fetch.Credentials {
	if !d.RequiresAuth {
		return nil
	}
	prefix := strings.ToUpper(strings.ReplaceAll(d.Name, "-", "_"))
	user := os.Getenv(prefix + "_USERNAME")
	pass := os.Getenv(prefix + "_PASSWORD")
	if user == "" && pass == "" {
		log.Printf("Source %s requires auth but no credentials are set", d.Name)
		return nil
	}
	return &fetch.Credentials{Username: user, Password: pass}
}

func selectSources(all []sources.Descriptor, list string) ([]sources.Descriptor, error) {
	if list == "" {
		return all, nil
	}
	byName := make(map[string]sources.Descriptor, len(all))
	for _, d := range all {
		byName[d.Name] = d
	}
	var out []sources.Descriptor
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		d, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("source %s is not configured", name)
		}
		out = append(out, d)
	}
	return out, nil
}

type timeWindow struct {
	start, end time.Time
}

func parseWindow(startStr, endStr string) (*timeWindow, error) {
	if startStr == "" || endStr == "" {
		return nil, errors.New("-start and -end must be given together")
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return nil, fmt.Errorf("parse -start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return nil, fmt.Errorf("parse -end: %w", err)
	}
	if end.Before(start) {
		return nil, errors.New("-end is before -start")
	}
	return &timeWindow{start: start, end: end}, nil
}
