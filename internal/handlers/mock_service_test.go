package handlers

import (
	"context"
	"time"

	"controlling_pod/internal/models"
	"controlling_pod/internal/scheduler"
	"controlling_pod/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockDevice struct {
	state    models.DeviceState
	stateErr error
	applyErr error
	execOut  string
	execErr  error
	nudgeErr error

	applied     []models.PartialDeviceState
	refreshes   int
	lastCommand string
	lastArg     string
	lastNudge   struct {
		side models.Side
		temp int
	}
}

func (m *mockDevice) ApplyPartial(_ context.Context, u models.PartialDeviceState) error {
	m.applied = append(m.applied, u)
	return m.applyErr
}

func (m *mockDevice) GetState(context.Context) (models.DeviceState, error) {
	return m.state, m.stateErr
}

func (m *mockDevice) Refresh(context.Context) (models.DeviceState, error) {
	m.refreshes++
	return m.state, m.stateErr
}

func (m *mockDevice) Execute(_ context.Context, command, arg string) (string, error) {
	m.lastCommand, m.lastArg = command, arg
	return m.execOut, m.execErr
}

func (m *mockDevice) Nudge(side models.Side, temperatureF int) error {
	m.lastNudge.side, m.lastNudge.temp = side, temperatureF
	return m.nudgeErr
}

type mockSchedules struct {
	schedules models.Schedules
	settings  models.Settings
	err       error

	lastUpdate   service.ScheduleUpdate
	lastSettings models.Settings
}

func (m *mockSchedules) GetSchedules(context.Context) (models.Schedules, error) {
	return m.schedules, m.err
}

func (m *mockSchedules) UpdateSchedules(_ context.Context, u service.ScheduleUpdate) (models.Schedules, error) {
	m.lastUpdate = u
	return m.schedules, m.err
}

func (m *mockSchedules) GetSettings(context.Context) (models.Settings, error) {
	return m.settings, m.err
}

func (m *mockSchedules) UpdateSettings(_ context.Context, s models.Settings) (models.Settings, error) {
	m.lastSettings = s
	return s, m.err
}

func (m *mockSchedules) CompileAndReconcile(context.Context) (scheduler.ReconcileResult, error) {
	return scheduler.ReconcileResult{}, m.err
}

type mockMonitoring struct {
	doc    models.StatusDocument
	jobs   []scheduler.JobInfo
	runErr error
	ran    string
}

func (m *mockMonitoring) GetStatus(context.Context) models.StatusDocument { return m.doc }
func (m *mockMonitoring) Jobs() []scheduler.JobInfo                       { return m.jobs }
func (m *mockMonitoring) RunJob(key string) (scheduler.Outcome, error) {
	m.ran = key
	return scheduler.Outcome{Key: key}, m.runErr
}

type mockEventLog struct {
	resp     []models.JobEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.JobEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil)
	return h.InitRoutes()
}

type mockFlags struct {
	svc     models.Services
	err     error
	lastSet *bool
}

func (m *mockFlags) GetServices(context.Context) (models.Services, error) { return m.svc, m.err }

func (m *mockFlags) SetBiometrics(_ context.Context, enabled bool) (models.Services, error) {
	m.lastSet = &enabled
	m.svc.Biometrics.Enabled = enabled
	return m.svc, m.err
}
