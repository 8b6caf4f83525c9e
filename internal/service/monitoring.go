package service

import (
	"context"

	"controlling_pod/internal/models"
	"controlling_pod/internal/scheduler"
)

type MonitoringService struct {
	status StatusReader
	jobs   Reconciler
}

func NewMonitoringService(status StatusReader, jobs Reconciler) *MonitoringService {
	return &MonitoringService{status: status, jobs: jobs}
}

// GetStatus returns a freshly aggregated status document.
func (s *MonitoringService) GetStatus(ctx context.Context) models.StatusDocument {
	return s.status.Snapshot(ctx)
}

func (s *MonitoringService) Jobs() []scheduler.JobInfo {
	return s.jobs.Snapshot()
}

// RunJob fires a registered job now, outside its weekly slot.
func (s *MonitoringService) RunJob(key string) (scheduler.Outcome, error) {
	return s.jobs.Fire(key)
}
