package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"controlling_pod/internal/models"
)

// minValidYear is the earliest year a synced clock can report.
const minValidYear = 2024

var ErrClockNotSet = errors.New("system clock is not set")

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Reporter supplies a record computed on demand.
type Reporter interface {
	HealthRecord(ctx context.Context) models.HealthRecord
}

type ServicesReader interface {
	Load(ctx context.Context) (models.Services, error)
}

// ClockValid reports whether now looks like a real, synced time.
func ClockValid(now time.Time) error {
	if now.Year() < minValidYear {
		return fmt.Errorf("%w: %s", ErrClockNotSet, now.Format(time.RFC3339))
	}
	return nil
}

type Aggregator struct {
	store     *Store
	db        Pinger
	services  ServicesReader
	reporters []Reporter
	now       func() time.Time
}

func NewAggregator(store *Store, db Pinger, services ServicesReader, reporters ...Reporter) *Aggregator {
	return &Aggregator{
		store:     store,
		db:        db,
		services:  services,
		reporters: reporters,
		now:       time.Now,
	}
}

// Snapshot builds the status document from scratch on every call.
func (a *Aggregator) Snapshot(ctx context.Context) models.StatusDocument {
	doc := make(models.StatusDocument, len(FixedNames)+4)
	for _, name := range FixedNames {
		doc[name] = Blank(name)
	}
	for name, rec := range a.store.All() {
		doc[name] = rec
	}

	doc[Database] = a.checkDatabase(ctx)
	doc[SystemDate] = a.checkClock()

	for _, r := range a.reporters {
		rec := r.HealthRecord(ctx)
		if rec.Description == "" {
			rec.Description = descriptions[rec.Name]
		}
		doc[rec.Name] = rec
	}

	a.foldBiometrics(ctx, doc)
	return doc
}

func (a *Aggregator) checkDatabase(ctx context.Context) models.HealthRecord {
	rec := Blank(Database)
	if a.db == nil {
		return rec
	}
	if err := a.db.PingContext(ctx); err != nil {
		rec.Status, rec.Message = models.StatusFailed, err.Error()
		return rec
	}
	rec.Status = models.StatusHealthy
	return rec
}

func (a *Aggregator) checkClock() models.HealthRecord {
	rec := Blank(SystemDate)
	if err := ClockValid(a.now()); err != nil {
		rec.Status, rec.Message = models.StatusFailed, err.Error()
		return rec
	}
	rec.Status = models.StatusHealthy
	return rec
}

func (a *Aggregator) foldBiometrics(ctx context.Context, doc models.StatusDocument) {
	if a.services == nil {
		return
	}
	svc, err := a.services.Load(ctx)
	if err != nil || !svc.Biometrics.Enabled {
		return
	}
	jobs := svc.Biometrics.Jobs
	doc[BiometricsStream] = jobs.Stream
	doc[BiometricsCalibrateLeft] = jobs.CalibrateLeft
	doc[BiometricsCalibrateRight] = jobs.CalibrateRight
}
