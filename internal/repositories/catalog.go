// Package repositories holds the catalog queries used by the CLI and the
// downstream pipeline.
package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/floodcast/hydrofetch/internal/models"
	"github.com/floodcast/hydrofetch/internal/report"
	"github.com/floodcast/hydrofetch/internal/sources"
)

// TouchSource upserts the registry row for a source and stamps its last
// access time.
func TouchSource(ctx context.Context, db *bun.DB, name string, family sources.ProductFamily, at time.Time) error {
	src := &models.DataSource{
		Name:         name,
		Family:       string(family),
		LastAccessed: &at,
	}
	_, err := db.NewInsert().
		Model(src).
		On("CONFLICT (name) DO UPDATE").
		Set("family = EXCLUDED.family").
		Set("last_accessed = EXCLUDED.last_accessed").
		Exec(ctx)
	return err
}

// RecordRun inserts the row for a run that has just started.
func RecordRun(ctx context.Context, db *bun.DB, run *models.DownloadRun) error {
	_, err := db.NewInsert().Model(run).Exec(ctx)
	return err
}

// CompleteRun writes the final counts and status for a finished run.
func CompleteRun(ctx context.Context, db *bun.DB, runID string, rep *report.RunReport) error {
	s := rep.Summarize()
	_, end := rep.Window()

	status := models.RunStatusCompleted
	if s.Failed() > 0 {
		status = models.RunStatusFailed
	}

	_, err := db.NewUpdate().
		Model((*models.DownloadRun)(nil)).
		Set("end_time = ?", end).
		Set("status = ?", status).
		Set("planned = ?", s.Total).
		Set("fetched = ?", s.Fetched).
		Set("not_yet_published = ?", s.NotYetPublished).
		Set("not_found = ?", s.NotFound).
		Set("transient_errors = ?", s.Transient).
		Set("permanent_errors = ?", s.Permanent).
		Set("bytes_fetched = ?", s.BytesFetched).
		Where("run_id = ?", runID).
		Exec(ctx)
	return err
}

// UpsertArtifacts writes one catalog row per outcome, keyed by artifact
// identity. A re-run over the same window updates outcomes in place; that is
// the catalog half of idempotent re-downloads.
func UpsertArtifacts(ctx context.Context, db *bun.DB, rep *report.RunReport) error {
	outcomes := rep.Outcomes()
	if len(outcomes) == 0 {
		return nil
	}

	rows := make([]*models.Artifact, 0, len(outcomes))
	for id, o := range outcomes {
		rows = append(rows, models.ArtifactFromOutcome(id, o))
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (source, cycle, lead_hours, parameter) DO UPDATE").
			Set("outcome = EXCLUDED.outcome").
			Set("bytes = EXCLUDED.bytes").
			Set("local_path = EXCLUDED.local_path").
			Set("attempts = EXCLUDED.attempts").
			Set("reason = EXCLUDED.reason").
			Set("updated_at = CURRENT_TIMESTAMP").
			Exec(ctx)
		return err
	})
}

// RecentRuns returns the latest runs for a source, newest first.
func RecentRuns(ctx context.Context, db *bun.DB, source string, limit int) ([]*models.DownloadRun, error) {
	var runs []*models.DownloadRun
	err := db.NewSelect().
		Model(&runs).
		Where("source = ?", source).
		OrderExpr("start_time DESC").
		Limit(limit).
		Scan(ctx)
	return runs, err
}

// StagedArtifacts returns the successfully fetched artifacts of a source
// whose cycle falls at or after since, ordered by cycle then lead time. This
// is the query the downstream pipeline uses to pick up fresh data.
func StagedArtifacts(ctx context.Context, db *bun.DB, source string, since time.Time) ([]*models.Artifact, error) {
	var artifacts []*models.Artifact
	err := db.NewSelect().
		Model(&artifacts).
		Where("source = ?", source).
		Where("outcome = ?", "fetched").
		Where("cycle >= ?", since).
		OrderExpr("cycle DESC, lead_hours ASC, parameter ASC").
		Scan(ctx)
	return artifacts, err
}
