package mysql

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/plant-md/internal/domain/events"
)

func TestEventRepository_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	ev := &events.Event{
		ID:             "0b6c8d0e-3c57-4d3c-9d0c-7a2f0e1e4a11",
		RequestID:      "host/abc-000001",
		Provider:       "Gemini",
		Model:          "gemini-2.5-flash",
		MimeType:       "image/jpeg",
		ImageBytes:     2048,
		Outcome:        events.OutcomeFailed,
		UpstreamStatus: 429,
		ErrorKind:      "upstream",
		Message:        "Gemini API error: quota",
		DurationMS:     812,
		CreatedAt:      at,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_events")).
		WithArgs(ev.ID, ev.RequestID, "Gemini", "gemini-2.5-flash", "image/jpeg", 2048, "failed",
			429, "upstream", "Gemini API error: quota", "", int64(812), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewEventRepository(db).Record(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_RecordDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ev := &events.Event{ID: "id-1", Outcome: events.OutcomeFailed, ErrorKind: "input", Message: strings.Repeat("x", 2000)}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_events")).
		WithArgs("id-1", "-", "-", "-", "-", 0, "failed", 0, "input", strings.Repeat("x", maxMessageLen), "", int64(0), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewEventRepository(db).Record(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_RecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO analysis_events").WillReturnError(errors.New("deadlock"))

	err = NewEventRepository(db).Record(context.Background(), &events.Event{ID: "x"})
	assert.EqualError(t, err, "deadlock")
}

func TestEventRepository_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS analysis_events")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewEventRepository(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "a", truncate("aé", 2), "a split rune is dropped")
	assert.Equal(t, "-", stringOrDash("  "))
}
