package health

import (
	"sort"
	"sync"

	"controlling_pod/internal/models"
)

// Subsystem names reported in the status document.
const (
	Database            = "database"
	HTTPServer          = "http-server"
	DeviceSocket        = "device-socket"
	Jobs                = "jobs"
	Logger              = "logger"
	PowerSchedule       = "power-schedule"
	TemperatureSchedule = "temperature-schedule"
	PrimeSchedule       = "prime-schedule"
	AlarmSchedule       = "alarm-schedule"
	SystemDate          = "system-date"
	MQTT                = "mqtt"

	BiometricsStream         = "biometrics-stream"
	BiometricsCalibrateLeft  = "biometrics-calibrate-left"
	BiometricsCalibrateRight = "biometrics-calibrate-right"
)

var descriptions = map[string]string{
	Database:            "Local SQLite storage",
	HTTPServer:          "HTTP API server",
	DeviceSocket:        "Socket connection to the pod controller",
	Jobs:                "Recurring job scheduler",
	Logger:              "Application logger",
	PowerSchedule:       "Scheduled power on/off",
	TemperatureSchedule: "Scheduled temperature changes",
	PrimeSchedule:       "Daily pod priming",
	AlarmSchedule:       "Scheduled alarms (not armed by this service)",
	SystemDate:          "System clock is set",
	MQTT:                "MQTT broker for analysis requests",
}

// FixedNames is the key set every status document carries.
var FixedNames = []string{
	Database, HTTPServer, DeviceSocket, Jobs, Logger,
	PowerSchedule, TemperatureSchedule, PrimeSchedule, AlarmSchedule, SystemDate,
}

// Store holds pushed health records. Each record has a single writer: the
// subsystem it describes.
type Store struct {
	mu      sync.RWMutex
	records map[string]models.HealthRecord
}

func NewStore() *Store {
	return &Store{records: make(map[string]models.HealthRecord)}
}

// Blank returns a not_started record with the known description for name.
func Blank(name string) models.HealthRecord {
	return models.HealthRecord{Name: name, Status: models.StatusNotStarted, Description: descriptions[name]}
}

func (s *Store) Set(name string, status models.HealthState, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[name]
	if !ok {
		rec = Blank(name)
	}
	rec.Status = status
	rec.Message = message
	s.records[name] = rec
}

func (s *Store) Healthy(name string) {
	s.Set(name, models.StatusHealthy, "")
}

func (s *Store) Failed(name string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	s.Set(name, models.StatusFailed, msg)
}

func (s *Store) Get(name string) (models.HealthRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	return rec, ok
}

// All returns a copy of every pushed record.
func (s *Store) All() map[string]models.HealthRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.HealthRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// Names lists pushed record names in order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for k := range s.records {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
