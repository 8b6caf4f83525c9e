package service

import (
	"context"
	"sync"
	"time"

	"controlling_pod/internal/device"
	"controlling_pod/internal/models"
	"controlling_pod/internal/schedule"
	"controlling_pod/internal/scheduler"
)

// fakeEventRepo records appends and answers List from configured values.
type fakeEventRepo struct {
	mu       sync.Mutex
	appended []models.JobEvent

	gotFrom time.Time
	gotTo   time.Time
	gotType string
	events  []models.JobEvent
	err     error
	calls   int

	appendErr error
}

func (f *fakeEventRepo) Append(_ context.Context, e models.JobEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) List(_ context.Context, from, to time.Time, typ string) ([]models.JobEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFrom, f.gotTo, f.gotType = from, to, typ
	return f.events, f.err
}

func (f *fakeEventRepo) ofType(typ string) []models.JobEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.JobEvent
	for _, e := range f.appended {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type fakeGateway struct {
	mu       sync.Mutex
	applied  []models.PartialDeviceState
	applyErr error

	state     models.DeviceState
	known     bool
	refreshes int

	executed []device.Command
	reply    string
}

func (f *fakeGateway) ApplyPartial(_ context.Context, u models.PartialDeviceState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, u)
	return f.applyErr
}

func (f *fakeGateway) Refresh(context.Context) (models.DeviceState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	f.known = true
	return f.state, nil
}

func (f *fakeGateway) State() (models.DeviceState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.known
}

func (f *fakeGateway) Execute(_ context.Context, cmd device.Command, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, cmd)
	return f.reply, nil
}

func (f *fakeGateway) writes() []models.PartialDeviceState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PartialDeviceState(nil), f.applied...)
}

type fakeReconciler struct {
	mu    sync.Mutex
	calls [][]schedule.Trigger
}

func (f *fakeReconciler) Reconcile(ts []schedule.Trigger) scheduler.ReconcileResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ts)
	return scheduler.ReconcileResult{Added: schedule.Keys(ts)}
}

func (f *fakeReconciler) Snapshot() []scheduler.JobInfo { return nil }

func (f *fakeReconciler) Fire(key string) (scheduler.Outcome, error) {
	return scheduler.Outcome{Key: key}, nil
}

func (f *fakeReconciler) last() []schedule.Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

type memSchedules struct {
	mu    sync.Mutex
	s     models.Schedules
	saves int
}

func newMemSchedules() *memSchedules {
	return &memSchedules{s: models.DefaultSchedules()}
}

func (m *memSchedules) SaveDay(_ context.Context, side models.Side, day models.DayOfWeek, ds models.DailySchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.s.For(side)[day] = ds
	return nil
}

func (m *memSchedules) Load(context.Context) (models.Schedules, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

type memSettings struct {
	mu sync.Mutex
	s  models.Settings
}

func (m *memSettings) Save(_ context.Context, s models.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

func (m *memSettings) Load(context.Context) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

type fixedServices struct {
	svc models.Services
	err error
}

func (f fixedServices) Load(context.Context) (models.Services, error) { return f.svc, f.err }

type memServices struct {
	s     models.Services
	saves int
}

func (m *memServices) Save(_ context.Context, s models.Services) error {
	m.saves++
	m.s = s
	return nil
}

func (m *memServices) Load(context.Context) (models.Services, error) { return m.s, nil }
