package models

type HealthState string

const (
	StatusNotStarted HealthState = "not_started"
	StatusHealthy    HealthState = "healthy"
	StatusFailed     HealthState = "failed"
)

type HealthRecord struct {
	Name        string      `json:"name"`
	Status      HealthState `json:"status"`
	Description string      `json:"description"`
	Message     string      `json:"message"`
}

// StatusDocument is keyed by subsystem name.
type StatusDocument map[string]HealthRecord

type BiometricsJobs struct {
	Stream         HealthRecord `json:"stream"`
	CalibrateLeft  HealthRecord `json:"calibrateLeft"`
	CalibrateRight HealthRecord `json:"calibrateRight"`
}

type Biometrics struct {
	Enabled bool           `json:"enabled"`
	Jobs    BiometricsJobs `json:"jobs"`
}

type Services struct {
	Biometrics Biometrics `json:"biometrics"`
}

func DefaultServices() Services {
	return Services{Biometrics: Biometrics{Jobs: BiometricsJobs{
		Stream:         HealthRecord{Name: "Biometrics stream", Status: StatusNotStarted, Description: "Streams raw sensor data for biometric analysis"},
		CalibrateLeft:  HealthRecord{Name: "Calibrate left", Status: StatusNotStarted, Description: "Calibrates the left side sensors"},
		CalibrateRight: HealthRecord{Name: "Calibrate right", Status: StatusNotStarted, Description: "Calibrates the right side sensors"},
	}}}
}
