package telemetry

import (
	"errors"
	"fmt"

	"github.com/smartfactory/sentinel/server/internal/health"
)

// Default generation parameters.
const (
	DefaultNumMachines      = 6
	DefaultHours            = 120
	DefaultBaseMachineID    = 101
	DefaultDegradeStartHour = 80

	// DefaultCriticalOffset selects the 4th generated machine as the one
	// that degrades.
	DefaultCriticalOffset = 3

	DefaultTemperatureNoise = 2.0
	DefaultVibrationNoise   = 0.08

	DefaultTemperatureRate = 1.8  // degrees per hour
	DefaultVibrationRate   = 0.06 // vibration units per hour
)

// ErrInvalidParameter is wrapped by every validation failure.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParamError describes which generation parameter was rejected and why.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("telemetry: %s: %s: %s", ErrInvalidParameter, e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidParameter) match.
func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

// Params controls one generation run.
type Params struct {
	// NumMachines is the fleet size. Machines get consecutive identifiers
	// starting at BaseMachineID.
	NumMachines int

	// Hours is the number of hourly steps generated per machine.
	Hours int

	// BaseMachineID is the identifier of the first machine.
	BaseMachineID int

	// CriticalMachineID is the machine that degrades. It must be one of the
	// generated identifiers.
	CriticalMachineID int

	// DegradeStartHour is the first hour of degradation, in [0, Hours).
	DegradeStartHour int

	// BaseTemperature and BaseVibration are the channel baselines.
	BaseTemperature float64
	BaseVibration   float64

	// TemperatureNoise and VibrationNoise are the gaussian standard
	// deviations per channel. Zero disables noise on that channel.
	TemperatureNoise float64
	VibrationNoise   float64

	// TemperatureRate and VibrationRate are the per-hour drift applied to
	// the critical machine once degradation has started.
	TemperatureRate float64
	VibrationRate   float64
}

// DefaultParams returns the standard demo fleet: six machines 101..106 over
// 120 hours, with machine 104 degrading from hour 80.
func DefaultParams() Params {
	return Params{
		NumMachines:       DefaultNumMachines,
		Hours:             DefaultHours,
		BaseMachineID:     DefaultBaseMachineID,
		CriticalMachineID: DefaultBaseMachineID + DefaultCriticalOffset,
		DegradeStartHour:  DefaultDegradeStartHour,
		BaseTemperature:   health.DefaultBaseTemperature,
		BaseVibration:     health.DefaultBaseVibration,
		TemperatureNoise:  DefaultTemperatureNoise,
		VibrationNoise:    DefaultVibrationNoise,
		TemperatureRate:   DefaultTemperatureRate,
		VibrationRate:     DefaultVibrationRate,
	}
}

// MachineIDs returns the generated identifiers in ascending order.
func (p Params) MachineIDs() []int {
	if p.NumMachines <= 0 {
		return nil
	}
	ids := make([]int, p.NumMachines)
	for i := range ids {
		ids[i] = p.BaseMachineID + i
	}
	return ids
}

// Noiseless reports whether both channels have noise disabled.
func (p Params) Noiseless() bool {
	return p.TemperatureNoise == 0 && p.VibrationNoise == 0
}

// Validate checks every parameter and returns the first violation as a
// *ParamError, or nil.
func (p Params) Validate() error {
	if p.NumMachines <= 0 {
		return &ParamError{Field: "num_machines", Reason: fmt.Sprintf("must be positive, got %d", p.NumMachines)}
	}
	if p.Hours <= 0 {
		return &ParamError{Field: "hours", Reason: fmt.Sprintf("must be positive, got %d", p.Hours)}
	}
	if p.DegradeStartHour < 0 || p.DegradeStartHour >= p.Hours {
		return &ParamError{
			Field:  "degrade_start_hour",
			Reason: fmt.Sprintf("%d is outside [0, %d)", p.DegradeStartHour, p.Hours),
		}
	}
	last := p.BaseMachineID + p.NumMachines - 1
	if p.CriticalMachineID < p.BaseMachineID || p.CriticalMachineID > last {
		return &ParamError{
			Field:  "critical_machine_id",
			Reason: fmt.Sprintf("%d is not among generated machines %d..%d", p.CriticalMachineID, p.BaseMachineID, last),
		}
	}
	if p.TemperatureNoise < 0 {
		return &ParamError{Field: "temperature_noise", Reason: "stddev must not be negative"}
	}
	if p.VibrationNoise < 0 {
		return &ParamError{Field: "vibration_noise", Reason: "stddev must not be negative"}
	}
	return nil
}
