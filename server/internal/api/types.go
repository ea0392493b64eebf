package api

import (
	"github.com/smartfactory/sentinel/pkg/types"
	"github.com/smartfactory/sentinel/server/internal/fleet"
	"github.com/smartfactory/sentinel/server/internal/health"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State         string  `json:"state"` // worst tier present, or "unknown"
	TotalMachines int     `json:"total_machines"`
	CriticalCount int     `json:"critical_count"`
	WarningCount  int     `json:"warning_count"`
	HealthyCount  int     `json:"healthy_count"`
	AverageScore  float64 `json:"average_score"`
	AlertCount    int     `json:"alert_count"`
	GeneratedAt   string  `json:"generated_at,omitempty"` // RFC3339
}

// MachineResponse is one machine's latest reading in GET /api/v1/machines.
type MachineResponse struct {
	MachineID   int        `json:"machine_id"`
	Hour        int        `json:"hour"`
	Temperature float64    `json:"temperature"`
	Vibration   float64    `json:"vibration"`
	HealthScore float64    `json:"health_score"`
	Tier        types.Tier `json:"tier"`
}

// MachineDetailResponse is the payload for GET /api/v1/machines/{id}.
type MachineDetailResponse struct {
	MachineResponse
	Stats      fleet.Stats       `json:"stats"`
	Assessment health.Assessment `json:"assessment"`
}

// HistoryResponse is the payload for GET /api/v1/machines/{id}/history.
type HistoryResponse struct {
	MachineID int             `json:"machine_id"`
	From      int             `json:"from"`
	To        int             `json:"to"`
	Readings  []types.Reading `json:"readings"`
}

// ParamsResponse echoes the generation parameters of the current dataset.
type ParamsResponse struct {
	NumMachines       int     `json:"num_machines"`
	Hours             int     `json:"hours"`
	BaseMachineID     int     `json:"base_machine_id"`
	CriticalMachineID int     `json:"critical_machine_id"`
	DegradeStartHour  int     `json:"degrade_start_hour"`
	BaseTemperature   float64 `json:"base_temperature"`
	BaseVibration     float64 `json:"base_vibration"`
	TemperatureNoise  float64 `json:"temperature_noise"`
	VibrationNoise    float64 `json:"vibration_noise"`
	TemperatureRate   float64 `json:"temperature_rate"`
	VibrationRate     float64 `json:"vibration_rate"`
	Seed              uint64  `json:"seed"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the data of
// every WebSocket broadcast.
type SnapshotResponse struct {
	Summary     fleet.Summary     `json:"summary"`
	Machines    []MachineResponse `json:"machines"`
	Params      *ParamsResponse   `json:"params,omitempty"`
	AlertCount  int               `json:"alert_count"`
	GeneratedAt string            `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
