package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bryanwahyu/plant-md/internal/domain/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_events (
  id              UUID         PRIMARY KEY,
  request_id      TEXT         NOT NULL,
  provider        TEXT         NOT NULL,
  model           TEXT         NOT NULL,
  mime_type       TEXT         NOT NULL,
  image_bytes     INTEGER      NOT NULL,
  outcome         TEXT         NOT NULL,
  upstream_status INTEGER      NOT NULL,
  error_kind      TEXT         NOT NULL,
  message         TEXT         NOT NULL,
  archive_key     TEXT         NOT NULL,
  duration_ms     BIGINT       NOT NULL,
  created_at      TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_events_created ON analysis_events (created_at);`

// EventRepository writes relay request events to Postgres.
type EventRepository struct{ db *sql.DB }

func NewEventRepository(db *sql.DB) *EventRepository { return &EventRepository{db: db} }

// EnsureSchema creates the analysis_events table if needed.
func (r *EventRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Record implements events.Recorder.
func (r *EventRepository) Record(ctx context.Context, e *events.Event) error {
	const q = `
INSERT INTO analysis_events
(id, request_id, provider, model, mime_type, image_bytes, outcome,
 upstream_status, error_kind, message, archive_key, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
 outcome = EXCLUDED.outcome,
 error_kind = EXCLUDED.error_kind,
 message = EXCLUDED.message;`

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		stringOrDash(e.RequestID),
		stringOrDash(e.Provider),
		stringOrDash(e.Model),
		stringOrDash(e.MimeType),
		e.ImageBytes,
		string(e.Outcome),
		e.UpstreamStatus,
		e.ErrorKind,
		e.Message,
		e.ArchiveKey,
		e.DurationMS,
		createdAt.UTC(),
	)
	return err
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
