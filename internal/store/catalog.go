package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"avature-harvest/internal/domain"
)

// UpsertRecords folds one run's corpus into the catalog. New identities
// insert; known ones update with the same guards the in-run merge uses: the
// description only grows, metadata is patched with newer values winning,
// and first_seen_at/extracted_at keep their original stamps.
func UpsertRecords(ctx context.Context, db *sql.DB, records []domain.JobRecord, seenAt time.Time) (added, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	seen := seenAt.UTC().Format(time.RFC3339)

	for _, rec := range records {
		metaJSON, err := encodeMeta(rec.Metadata)
		if err != nil {
			return added, updated, fmt.Errorf("encode metadata for %s: %w", rec.RecordID, err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT OR IGNORE INTO jobs (record_id, source_site, source_url, title, description, application_url, metadata, extracted_at, first_seen_at, last_seen_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			rec.RecordID, rec.SourceSite, rec.SourceURL, rec.Title, rec.Description,
			rec.ApplicationURL, metaJSON, rec.ExtractedAt.UTC().Format(time.RFC3339), seen, seen,
		)
		if err != nil {
			return added, updated, fmt.Errorf("insert job %s: %w", rec.RecordID, err)
		}

		var changes int
		if err := tx.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); err != nil {
			return added, updated, err
		}
		if changes > 0 {
			added++
			continue
		}

		_, err = tx.ExecContext(ctx, `
UPDATE jobs SET
  title = ?,
  source_url = ?,
  application_url = ?,
  description = CASE WHEN length(?) > length(description) THEN ? ELSE description END,
  metadata = json_patch(metadata, ?),
  last_seen_at = ?
WHERE record_id = ?;`,
			rec.Title, rec.SourceURL, rec.ApplicationURL,
			rec.Description, rec.Description, metaJSON, seen, rec.RecordID,
		)
		if err != nil {
			return added, updated, fmt.Errorf("update job %s: %w", rec.RecordID, err)
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return added, updated, err
	}
	return added, updated, nil
}

// CountJobs reports the catalog size, mostly for run summaries.
func CountJobs(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&n)
	return n, err
}

func encodeMeta(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
