package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"controlling_pod/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// sqlmockArgumentFunc adapts a predicate to sqlmock.Argument.
type sqlmockArgumentFunc func(driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool { return f(v) }

var isRecentUTC = sqlmockArgumentFunc(func(v driver.Value) bool {
	tm, ok := v.(time.Time)
	if !ok || tm.Location() != time.UTC {
		return false
	}
	now := time.Now().UTC()
	return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
})

func TestAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO job_events")).
		WithArgs(sqlmock.AnyArg(), isRecentUTC,
			"JOB_FAILED",
			"left-monday-22:00-power-on-80",
			"left",
			"power on left at 80°F",
			"channel unavailable",
			`{"kind":"power-on"}`,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.JobEvent{
		Type:        "  job_failed ",
		Key:         "left-monday-22:00-power-on-80",
		Side:        "left",
		Description: "power on left at 80°F",
		Error:       "channel unavailable",
		Metadata:    map[string]any{"kind": "power-on"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_EmptyOptionalColumnsAreNull(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO job_events")).
		WithArgs("id-1", at.UTC(), "RECONCILED", nil, nil, "jobs reconciled", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.JobEvent{EventID: "id-1", OccurredAt: at, Type: "reconciled", Description: "jobs reconciled"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_DBError(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec("INSERT INTO job_events").WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.JobEvent{Type: "x", Description: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

var eventColumns = []string{"id", "occurred_at", "type", "job_key", "side", "message", "error", "meta"}

func TestList_NoFilters_And_MetadataParsing(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"a": "b"})

	rows := sqlmock.NewRows(eventColumns).
		AddRow("1", now, "JOB_SUCCEEDED", "k1", "left", "m1", nil, string(js)).
		AddRow("2", now.Add(time.Hour), "JOB_FAILED", "k2", nil, "m2", "boom", "{not json")

	mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL + " ORDER BY occurred_at ASC")).WillReturnRows(rows)

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Key != "k1" || got[0].Side != "left" || got[1].Error != "boom" || got[1].Side != "" {
		t.Fatalf("unexpected events: %+v", got)
	}
	b1, _ := json.Marshal(got[0].Metadata)
	if string(b1) != string(js) {
		t.Fatalf("metadata mismatch: %s vs %s", b1, js)
	}
	if got[1].Metadata != "{not json" {
		t.Fatalf("malformed meta should be kept raw, got %#v", got[1].Metadata)
	}
}

func TestList_WithFilters(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := selectEventsSQL + " WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(from, to, "JOB_FAILED").
		WillReturnRows(sqlmock.NewRows(eventColumns).AddRow("3", to, "JOB_FAILED", "k", "right", "c", "x", nil))

	got, err := repo.List(ctx(t), from, to, " job_failed ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "3" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_QueryError(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("locked"))
	if _, err := repo.List(ctx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatal("expected error")
	}
}
