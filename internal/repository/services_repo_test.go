package repository

import (
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"

	"controlling_pod/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestServices_SaveAndLoad(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewServicesSQLite(db)

	svc := models.DefaultServices()
	svc.Biometrics.Enabled = true
	svc.Biometrics.Jobs.Stream.Status = models.StatusHealthy
	jobs, _ := json.Marshal(svc.Biometrics.Jobs)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO services")).
		WithArgs(1, true, string(jobs), isRecentUTC).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectServicesSQL)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"biometrics_enabled", "biometrics_jobs"}).AddRow(true, string(jobs)))

	if err := repo.Save(ctx(t), svc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(ctx(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != svc {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", got, svc)
	}
}

func TestServices_LoadDefaults(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectServicesSQL)).WillReturnError(sql.ErrNoRows)
	got, err := NewServicesSQLite(db).Load(ctx(t))
	if err != nil || got.Biometrics.Enabled || got.Biometrics.Jobs.Stream.Status != models.StatusNotStarted {
		t.Fatalf("Load = %+v, %v", got, err)
	}
}
