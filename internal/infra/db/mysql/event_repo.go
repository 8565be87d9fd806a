package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/plant-md/internal/domain/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_events (
  id              CHAR(36)      NOT NULL PRIMARY KEY,
  request_id      VARCHAR(128)  NOT NULL,
  provider        VARCHAR(32)   NOT NULL,
  model           VARCHAR(64)   NOT NULL,
  mime_type       VARCHAR(64)   NOT NULL,
  image_bytes     INT           NOT NULL,
  outcome         VARCHAR(16)   NOT NULL,
  upstream_status INT           NOT NULL,
  error_kind      VARCHAR(32)   NOT NULL,
  message         VARCHAR(1024) NOT NULL,
  archive_key     VARCHAR(255)  NOT NULL,
  duration_ms     BIGINT        NOT NULL,
  created_at      DATETIME(3)   NOT NULL,
  KEY idx_analysis_events_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

// EventRepository writes relay request events to MySQL.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

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
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  outcome=VALUES(outcome), error_kind=VALUES(error_kind), message=VALUES(message);
`
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
		truncate(e.Message, maxMessageLen),
		e.ArchiveKey,
		e.DurationMS,
		createdAt.UTC(),
	)
	return err
}
