package service

import (
	"context"
	"time"

	"controlling_pod/internal/device"
	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"
	"controlling_pod/internal/repository"
	"controlling_pod/internal/schedule"
	"controlling_pod/internal/scheduler"
)

// Device exposes ad-hoc control of the pod outside the schedule.
type Device interface {
	ApplyPartial(ctx context.Context, u models.PartialDeviceState) error
	GetState(ctx context.Context) (models.DeviceState, error)
	Refresh(ctx context.Context) (models.DeviceState, error)
	Execute(ctx context.Context, command, arg string) (string, error)
	Nudge(side models.Side, temperatureF int) error
}

// Schedules reads and writes the weekly plan and settings. Every write
// recompiles and reconciles the job set.
type Schedules interface {
	GetSchedules(ctx context.Context) (models.Schedules, error)
	UpdateSchedules(ctx context.Context, u ScheduleUpdate) (models.Schedules, error)
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error)
	CompileAndReconcile(ctx context.Context) (scheduler.ReconcileResult, error)
}

// EventLog exposes the job history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.JobEvent, error)
}

// Monitoring exposes health and the registered jobs.
type Monitoring interface {
	GetStatus(ctx context.Context) models.StatusDocument
	Jobs() []scheduler.JobInfo
	RunJob(key string) (scheduler.Outcome, error)
}

// Flags reads and toggles optional services.
type Flags interface {
	GetServices(ctx context.Context) (models.Services, error)
	SetBiometrics(ctx context.Context, enabled bool) (models.Services, error)
}

type Service struct {
	Device
	Schedules
	EventLog
	Monitoring
	Flags
}

// Gateway is what the services need from device.Gateway.
type Gateway interface {
	ApplyPartial(ctx context.Context, u models.PartialDeviceState) error
	Refresh(ctx context.Context) (models.DeviceState, error)
	State() (models.DeviceState, bool)
	Execute(ctx context.Context, cmd device.Command, arg string) (string, error)
}

// Reconciler is satisfied by *scheduler.Scheduler.
type Reconciler interface {
	Reconcile(ts []schedule.Trigger) scheduler.ReconcileResult
	Snapshot() []scheduler.JobInfo
	Fire(key string) (scheduler.Outcome, error)
}

// StatusReader is satisfied by *health.Aggregator.
type StatusReader interface {
	Snapshot(ctx context.Context) models.StatusDocument
}

type Deps struct {
	Repos      *repository.Repository
	Gateway    Gateway
	Scheduler  Reconciler
	Status     StatusReader
	NudgeQuiet time.Duration
	Log        *logger.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		Device:     NewDeviceService(d.Gateway, d.NudgeQuiet, d.Log.Named("device")),
		Schedules:  NewScheduleService(d.Repos.ScheduleRepo, d.Repos.SettingsRepo, d.Repos.EventRepo, d.Scheduler, d.Log.Named("schedules")),
		EventLog:   NewEventLogService(d.Repos.EventRepo),
		Monitoring: NewMonitoringService(d.Status, d.Scheduler),
		Flags:      NewFlagsService(d.Repos.ServicesRepo),
	}
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "JOB_SUCCEEDED", "JOB_FAILED", "RECONCILED", "ANALYSIS"
}

// ScheduleUpdate replaces whole days. Sides and days not present are left alone.
type ScheduleUpdate map[models.Side]map[models.DayOfWeek]models.DailySchedule
