package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"controlling_pod/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const insertEventSQL = `
		INSERT INTO job_events (id, occurred_at, type, job_key, side, message, error, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

const selectEventsSQL = `SELECT id, occurred_at, type, job_key, side, message, error, meta FROM job_events`

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Append inserts a new event. If EventID or OccurredAt are empty, they're set.
func (r *EventSQLite) Append(ctx context.Context, e models.JobEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	e.OccurredAt = utcOrNow(e.OccurredAt)

	var meta sql.NullString
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			meta = sql.NullString{String: string(b), Valid: true}
		}
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt,
		strings.ToUpper(strings.TrimSpace(e.Type)),
		nullable(e.Key),
		nullable(e.Side),
		e.Description,
		nullable(e.Error),
		meta,
	)
	return err
}

// List returns events filtered by [from, to] (inclusive) and/or type, ordered ASC.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.JobEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := selectEventsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.JobEvent, 0, 64)
	for rows.Next() {
		var (
			ev                    models.JobEvent
			key, side, errS, meta sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &key, &side, &ev.Description, &errS, &meta); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.Key, ev.Side, ev.Error = key.String, side.String, errS.String

		if meta.Valid && meta.String != "" {
			var v any
			if err := json.Unmarshal([]byte(meta.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = meta.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
