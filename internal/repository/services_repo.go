package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"controlling_pod/internal/models"
)

type ServicesSQLite struct {
	db *sql.DB
}

func NewServicesSQLite(db *sql.DB) *ServicesSQLite {
	return &ServicesSQLite{db: db}
}

const (
	servicesRowID = 1

	upsertServicesSQL = `
		INSERT INTO services (id, biometrics_enabled, biometrics_jobs, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			biometrics_enabled=excluded.biometrics_enabled,
			biometrics_jobs=excluded.biometrics_jobs,
			updated_at=excluded.updated_at
	`

	selectServicesSQL = `SELECT biometrics_enabled, biometrics_jobs FROM services WHERE id=?`
)

func (r *ServicesSQLite) Save(ctx context.Context, s models.Services) error {
	jobs, err := json.Marshal(s.Biometrics.Jobs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertServicesSQL, servicesRowID, s.Biometrics.Enabled, string(jobs), time.Now().UTC())
	return err
}

// Load returns the stored services document, or the defaults before the first Save.
func (r *ServicesSQLite) Load(ctx context.Context) (models.Services, error) {
	var (
		s    models.Services
		jobs string
	)
	err := r.db.QueryRowContext(ctx, selectServicesSQL, servicesRowID).Scan(&s.Biometrics.Enabled, &jobs)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultServices(), nil
	}
	if err != nil {
		return models.Services{}, err
	}
	if err := json.Unmarshal([]byte(jobs), &s.Biometrics.Jobs); err != nil {
		return models.Services{}, err
	}
	return s, nil
}
