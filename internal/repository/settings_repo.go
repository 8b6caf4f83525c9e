package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"controlling_pod/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO settings (id, time_zone, left_away, right_away, prime_enabled, prime_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			time_zone=excluded.time_zone,
			left_away=excluded.left_away,
			right_away=excluded.right_away,
			prime_enabled=excluded.prime_enabled,
			prime_time=excluded.prime_time,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT time_zone, left_away, right_away, prime_enabled, prime_time
		FROM settings WHERE id=?
	`
)

// Save replaces the single settings row.
func (r *SettingsSQLite) Save(ctx context.Context, s models.Settings) error {
	var tz sql.NullString
	if s.TimeZone != nil {
		tz = sql.NullString{String: *s.TimeZone, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, upsertSettingsSQL,
		settingsRowID,
		tz,
		s.Left.AwayMode,
		s.Right.AwayMode,
		s.PrimePodDaily.Enabled,
		s.PrimePodDaily.Time,
		time.Now().UTC(),
	)
	return err
}

// Load returns the stored settings, or the defaults before the first Save.
func (r *SettingsSQLite) Load(ctx context.Context) (models.Settings, error) {
	row := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID)

	var (
		s  models.Settings
		tz sql.NullString
	)
	if err := row.Scan(&tz, &s.Left.AwayMode, &s.Right.AwayMode, &s.PrimePodDaily.Enabled, &s.PrimePodDaily.Time); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSettings(), nil
		}
		return models.Settings{}, err
	}
	if tz.Valid {
		s.TimeZone = &tz.String
	}
	return s, nil
}
