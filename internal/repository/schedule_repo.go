package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"controlling_pod/internal/models"
)

type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite {
	return &ScheduleSQLite{db: db}
}

const (
	upsertScheduleSQL = `
		INSERT INTO schedules (side, day, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(side, day) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`

	selectSchedulesSQL = `SELECT side, day, body FROM schedules`
)

// SaveDay stores one side/day as a JSON document.
func (r *ScheduleSQLite) SaveDay(ctx context.Context, side models.Side, day models.DayOfWeek, ds models.DailySchedule) error {
	if ds.Temperatures == nil {
		ds.Temperatures = map[string]int{}
	}
	body, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertScheduleSQL, string(side), string(day), string(body), time.Now().UTC())
	return err
}

// Load returns the full week for both sides; days never saved hold defaults.
func (r *ScheduleSQLite) Load(ctx context.Context) (models.Schedules, error) {
	out := models.DefaultSchedules()

	rows, err := r.db.QueryContext(ctx, selectSchedulesSQL)
	if err != nil {
		return models.Schedules{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var side, day, body string
		if err := rows.Scan(&side, &day, &body); err != nil {
			return models.Schedules{}, err
		}
		var ds models.DailySchedule
		if err := json.Unmarshal([]byte(body), &ds); err != nil {
			return models.Schedules{}, fmt.Errorf("decode schedule %s/%s: %w", side, day, err)
		}
		if ds.Temperatures == nil {
			ds.Temperatures = map[string]int{}
		}
		switch models.Side(side) {
		case models.SideLeft:
			out.Left[models.DayOfWeek(day)] = ds
		case models.SideRight:
			out.Right[models.DayOfWeek(day)] = ds
		}
	}
	if err := rows.Err(); err != nil {
		return models.Schedules{}, err
	}
	return out, nil
}
