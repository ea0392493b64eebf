package types

// Tier is the classification bucket derived from a health score.
type Tier string

// Tier values, ordered worst to best.
const (
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierHealthy  Tier = "healthy"
)

// Reading is one sensor sample for one machine at one simulated hour.
// Readings are produced once by the generator and never mutated afterwards.
type Reading struct {
	MachineID   int     `json:"machine_id"`
	Hour        int     `json:"hour"`
	Temperature float64 `json:"temperature"`
	Vibration   float64 `json:"vibration"`
	HealthScore float64 `json:"health_score"`
}
