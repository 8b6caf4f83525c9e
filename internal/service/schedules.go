package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"
	"controlling_pod/internal/repository"
	"controlling_pod/internal/schedule"
	"controlling_pod/internal/scheduler"
)

type ScheduleService struct {
	schedules repository.ScheduleRepo
	settings  repository.SettingsRepo
	events    repository.EventRepo
	jobs      Reconciler
	log       *logger.Logger

	// serializes write+compile+reconcile so the job set matches the last write
	mu sync.Mutex
}

func NewScheduleService(schedules repository.ScheduleRepo, settings repository.SettingsRepo, events repository.EventRepo,
	jobs Reconciler, log *logger.Logger) *ScheduleService {
	return &ScheduleService{schedules: schedules, settings: settings, events: events, jobs: jobs, log: log}
}

func (s *ScheduleService) GetSchedules(ctx context.Context) (models.Schedules, error) {
	return s.schedules.Load(ctx)
}

func (s *ScheduleService) GetSettings(ctx context.Context) (models.Settings, error) {
	return s.settings.Load(ctx)
}

// UpdateSchedules validates every day first, so a bad day writes nothing.
func (s *ScheduleService) UpdateSchedules(ctx context.Context, u ScheduleUpdate) (models.Schedules, error) {
	if err := validateUpdate(u); err != nil {
		return models.Schedules{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for side, days := range u {
		for day, ds := range days {
			if err := s.schedules.SaveDay(ctx, side, day, ds); err != nil {
				return models.Schedules{}, fmt.Errorf("save %s %s: %w", side, day, err)
			}
		}
	}
	if _, err := s.compileAndReconcile(ctx); err != nil {
		return models.Schedules{}, err
	}
	return s.schedules.Load(ctx)
}

func validateUpdate(u ScheduleUpdate) error {
	var errs []error
	for side, days := range u {
		if _, err := models.ParseSide(string(side)); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", schedule.ErrConfigInvalid, err))
			continue
		}
		ss := models.SideSchedule(days)
		if err := schedule.ValidateSide(side, ss); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *ScheduleService) UpdateSettings(ctx context.Context, st models.Settings) (models.Settings, error) {
	if _, err := schedule.LoadTimeZone(st.TimeZone); err != nil {
		return models.Settings{}, err
	}
	if st.PrimePodDaily.Enabled {
		if _, _, err := schedule.ParseHHMM(st.PrimePodDaily.Time); err != nil {
			return models.Settings{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settings.Save(ctx, st); err != nil {
		return models.Settings{}, err
	}
	if _, err := s.compileAndReconcile(ctx); err != nil {
		return models.Settings{}, err
	}
	return s.settings.Load(ctx)
}

// CompileAndReconcile rebuilds the trigger set from storage and hands it to
// the scheduler. A side that fails to compile loses its jobs; the error is
// returned alongside the result.
func (s *ScheduleService) CompileAndReconcile(ctx context.Context) (scheduler.ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compileAndReconcile(ctx)
}

func (s *ScheduleService) compileAndReconcile(ctx context.Context) (scheduler.ReconcileResult, error) {
	sched, err := s.schedules.Load(ctx)
	if err != nil {
		return scheduler.ReconcileResult{}, fmt.Errorf("load schedules: %w", err)
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return scheduler.ReconcileResult{}, fmt.Errorf("load settings: %w", err)
	}

	triggers, compileErr := schedule.Compile(sched, settings)
	res := s.jobs.Reconcile(triggers)

	ev := models.JobEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventReconciled,
		Description: fmt.Sprintf("%d jobs: %d added, %d removed, %d replaced", len(triggers), len(res.Added), len(res.Removed), len(res.Replaced)),
		Metadata:    res,
	}
	if compileErr != nil {
		ev.Error = compileErr.Error()
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Warnw("job_event_append_failed", "type", ev.Type, "error", err)
	}
	return res, compileErr
}
