package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"controlling_pod/internal/health"
	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"
	"controlling_pod/internal/schedule"
)

type analyzeCall struct {
	side       models.Side
	start, end time.Time
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []analyzeCall
	err   error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, side models.Side, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, analyzeCall{side, start, end})
	return f.err
}

func enabledServices() fixedServices {
	svc := models.DefaultServices()
	svc.Biometrics.Enabled = true
	return fixedServices{svc: svc}
}

type orchFixture struct {
	o        *Orchestrator
	gw       *fakeGateway
	store    *health.Store
	events   *fakeEventRepo
	analyzer *fakeAnalyzer
	now      time.Time
}

func newOrchFixture(flag BiometricsFlag) *orchFixture {
	f := &orchFixture{
		gw:       &fakeGateway{},
		store:    health.NewStore(),
		events:   &fakeEventRepo{},
		analyzer: &fakeAnalyzer{},
		now:      time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC),
	}
	f.o = NewOrchestrator(f.gw, f.store, f.events, flag, f.analyzer, OrchestratorConfig{}, logger.NewNop())
	f.o.now = func() time.Time { return f.now }
	return f
}

func trig(kind schedule.Kind, side models.Side, p schedule.Payload) schedule.Trigger {
	return schedule.Trigger{Key: string(side) + "-monday-09:00-" + string(kind), Kind: kind, Side: side, Day: models.Monday, Time: "09:00", Payload: p}
}

func TestOrchestrator_Handle_Writes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		trig   schedule.Trigger
		want   models.PartialDeviceState
		record string
	}{
		{
			name:   "power on",
			trig:   trig(schedule.KindPowerOn, models.SideLeft, schedule.Payload{OnTemperature: 88}),
			want:   models.ForSide(models.SideLeft, models.SideUpdate{IsOn: models.Bool(true), TargetTemperatureF: models.Int(88)}),
			record: health.PowerSchedule,
		},
		{
			name:   "power off",
			trig:   trig(schedule.KindPowerOff, models.SideRight, schedule.Payload{}),
			want:   models.ForSide(models.SideRight, models.SideUpdate{IsOn: models.Bool(false)}),
			record: health.PowerSchedule,
		},
		{
			name:   "temperature",
			trig:   trig(schedule.KindTemperature, models.SideRight, schedule.Payload{Temperature: 70}),
			want:   models.ForSide(models.SideRight, models.SideUpdate{TargetTemperatureF: models.Int(70)}),
			record: health.TemperatureSchedule,
		},
		{
			name:   "prime",
			trig:   trig(schedule.KindPrime, "", schedule.Payload{}),
			want:   models.PartialDeviceState{IsPriming: models.Bool(true)},
			record: health.PrimeSchedule,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newOrchFixture(fixedServices{svc: models.DefaultServices()})

			if err := f.o.Handle(context.Background(), tc.trig); err != nil {
				t.Fatalf("Handle: %v", err)
			}
			f.o.Wait()

			writes := f.gw.writes()
			if len(writes) != 1 {
				t.Fatalf("writes = %d; want 1", len(writes))
			}
			assertPartial(t, writes[0], tc.want)

			rec, _ := f.store.Get(tc.record)
			if rec.Status != models.StatusHealthy {
				t.Errorf("%s = %+v; want healthy", tc.record, rec)
			}
			ok := f.events.ofType(models.EventJobSucceeded)
			if len(ok) != 1 || ok[0].Key != tc.trig.Key {
				t.Errorf("succeeded events = %+v", ok)
			}
		})
	}
}

func assertPartial(t *testing.T, got, want models.PartialDeviceState) {
	t.Helper()
	for _, side := range models.Sides {
		g, w := got.For(side), want.For(side)
		if (g == nil) != (w == nil) {
			t.Fatalf("%s update presence: got %v want %v", side, g != nil, w != nil)
		}
		if g == nil {
			continue
		}
		if !eqBool(g.IsOn, w.IsOn) || !eqInt(g.TargetTemperatureF, w.TargetTemperatureF) {
			t.Fatalf("%s update = %+v; want %+v", side, *g, *w)
		}
	}
	if !eqBool(got.IsPriming, want.IsPriming) {
		t.Fatalf("isPriming mismatch")
	}
}

func eqBool(a, b *bool) bool { return (a == nil && b == nil) || (a != nil && b != nil && *a == *b) }
func eqInt(a, b *int) bool   { return (a == nil && b == nil) || (a != nil && b != nil && *a == *b) }

func TestOrchestrator_Handle_FailureRecorded(t *testing.T) {
	t.Parallel()
	f := newOrchFixture(enabledServices())
	f.gw.applyErr = errors.New("socket gone")

	err := f.o.Handle(context.Background(), trig(schedule.KindPowerOff, models.SideLeft, schedule.Payload{}))
	if !errors.Is(err, f.gw.applyErr) {
		t.Fatalf("err = %v", err)
	}
	f.o.Wait()

	rec, _ := f.store.Get(health.PowerSchedule)
	if rec.Status != models.StatusFailed || rec.Message == "" {
		t.Errorf("power-schedule = %+v; want failed with message", rec)
	}
	if failed := f.events.ofType(models.EventJobFailed); len(failed) != 1 || failed[0].Error != "socket gone" {
		t.Errorf("failed events = %+v", failed)
	}
	// analysis does not depend on the power-off write
	if len(f.analyzer.calls) != 1 || f.analyzer.calls[0].side != models.SideLeft {
		t.Errorf("analysis calls = %+v; want one for left", f.analyzer.calls)
	}
	if len(f.events.ofType(models.EventAnalysis)) != 1 {
		t.Error("no analysis event recorded")
	}
}

func TestOrchestrator_PowerOffAnalysis(t *testing.T) {
	t.Parallel()

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		f := newOrchFixture(enabledServices())
		if err := f.o.Handle(context.Background(), trig(schedule.KindPowerOff, models.SideRight, schedule.Payload{})); err != nil {
			t.Fatalf("Handle: %v", err)
		}
		f.o.Wait()

		if len(f.analyzer.calls) != 1 {
			t.Fatalf("analysis calls = %d; want 1", len(f.analyzer.calls))
		}
		c := f.analyzer.calls[0]
		if c.side != models.SideRight {
			t.Errorf("side = %s", c.side)
		}
		if !c.start.Equal(f.now.Add(-12*time.Hour)) || !c.end.Equal(f.now.Add(time.Hour)) {
			t.Errorf("window = [%v, %v]", c.start, c.end)
		}
		if len(f.events.ofType(models.EventAnalysis)) != 1 {
			t.Error("no analysis event recorded")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		f := newOrchFixture(fixedServices{svc: models.DefaultServices()})
		_ = f.o.Handle(context.Background(), trig(schedule.KindPowerOff, models.SideLeft, schedule.Payload{}))
		f.o.Wait()
		if len(f.analyzer.calls) != 0 {
			t.Fatalf("analysis calls = %d; want 0", len(f.analyzer.calls))
		}
	})

	t.Run("analyzer failure does not fail the job", func(t *testing.T) {
		t.Parallel()
		f := newOrchFixture(enabledServices())
		f.analyzer.err = errors.New("broker down")
		if err := f.o.Handle(context.Background(), trig(schedule.KindPowerOff, models.SideLeft, schedule.Payload{})); err != nil {
			t.Fatalf("Handle: %v", err)
		}
		f.o.Wait()
		ev := f.events.ofType(models.EventAnalysis)
		if len(ev) != 1 || ev[0].Error != "broker down" {
			t.Fatalf("analysis events = %+v", ev)
		}
		if rec, _ := f.store.Get(health.PowerSchedule); rec.Status != models.StatusHealthy {
			t.Errorf("power-schedule = %+v", rec)
		}
	})
}

func TestNewOrchestrator_RecordsNotStarted(t *testing.T) {
	t.Parallel()
	f := newOrchFixture(fixedServices{})
	for _, name := range []string{health.PowerSchedule, health.TemperatureSchedule, health.PrimeSchedule} {
		rec, ok := f.store.Get(name)
		if !ok || rec.Status != models.StatusNotStarted {
			t.Errorf("%s = %+v, %v", name, rec, ok)
		}
	}
}

type stuckGateway struct{}

func (stuckGateway) ApplyPartial(ctx context.Context, _ models.PartialDeviceState) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestOrchestrator_Handle_Timeout(t *testing.T) {
	t.Parallel()
	store := health.NewStore()
	events := &fakeEventRepo{}
	o := NewOrchestrator(stuckGateway{}, store, events, fixedServices{}, &fakeAnalyzer{},
		OrchestratorConfig{Timeout: 20 * time.Millisecond}, logger.NewNop())

	err := o.Handle(context.Background(), trig(schedule.KindTemperature, models.SideLeft, schedule.Payload{Temperature: 70}))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if r, _ := store.Get(health.TemperatureSchedule); r.Status != models.StatusFailed {
		t.Fatalf("temperature-schedule = %+v", r)
	}
	if got := events.ofType(models.EventJobFailed); len(got) != 1 {
		t.Fatalf("failed events = %d", len(got))
	}
}
