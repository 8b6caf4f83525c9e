package service

import (
	"context"

	"controlling_pod/internal/models"
	"controlling_pod/internal/repository"
)

// FlagsService exposes the optional services document (biometrics on/off and
// the job records the biometrics processes report).
type FlagsService struct {
	repo repository.ServicesRepo
}

func NewFlagsService(repo repository.ServicesRepo) *FlagsService {
	return &FlagsService{repo: repo}
}

func (s *FlagsService) GetServices(ctx context.Context) (models.Services, error) {
	return s.repo.Load(ctx)
}

// SetBiometrics flips the enabled flag and keeps the stored job records.
func (s *FlagsService) SetBiometrics(ctx context.Context, enabled bool) (models.Services, error) {
	cur, err := s.repo.Load(ctx)
	if err != nil {
		return models.Services{}, err
	}
	cur.Biometrics.Enabled = enabled
	if err := s.repo.Save(ctx, cur); err != nil {
		return models.Services{}, err
	}
	return cur, nil
}
