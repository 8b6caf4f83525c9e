package repository

import (
	"context"
	"database/sql"
	"time"

	"controlling_pod/internal/models"
)

type SettingsRepo interface {
	Save(ctx context.Context, s models.Settings) error
	Load(ctx context.Context) (models.Settings, error)
}

type ScheduleRepo interface {
	SaveDay(ctx context.Context, side models.Side, day models.DayOfWeek, ds models.DailySchedule) error
	Load(ctx context.Context) (models.Schedules, error)
}

type ServicesRepo interface {
	Save(ctx context.Context, s models.Services) error
	Load(ctx context.Context) (models.Services, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.JobEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.JobEvent, error)
}

type Repository struct {
	SettingsRepo SettingsRepo
	ScheduleRepo ScheduleRepo
	ServicesRepo ServicesRepo
	EventRepo    EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SettingsRepo: NewSettingsSQLite(db),
		ScheduleRepo: NewScheduleSQLite(db),
		ServicesRepo: NewServicesSQLite(db),
		EventRepo:    NewEventSQLite(db),
	}
}

// utcOrNow normalizes t to UTC, substituting the current time for zero.
func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
