package health

import (
	"fmt"

	"github.com/smartfactory/sentinel/pkg/types"
)

// Assessment is the operator-facing verdict for one machine's current score.
type Assessment struct {
	MachineID int        `json:"machine_id"`
	Score     float64    `json:"health_score"`
	Tier      types.Tier `json:"tier"`
	Headline  string     `json:"headline"`
	Action    string     `json:"action"`
}

// Assess builds the maintenance assessment for machineID at the given score.
func Assess(machineID int, score float64) Assessment {
	a := Assessment{
		MachineID: machineID,
		Score:     score,
		Tier:      TierOf(score),
	}
	switch a.Tier {
	case types.TierCritical:
		a.Headline = fmt.Sprintf("Machine %d is in failure zone", machineID)
		a.Action = "Schedule immediate shutdown and maintenance to avoid unplanned downtime."
	case types.TierWarning:
		a.Headline = fmt.Sprintf("Machine %d shows early risk", machineID)
		a.Action = "Plan inspection in next maintenance window."
	default:
		a.Headline = fmt.Sprintf("Machine %d is operating within safe limits", machineID)
		a.Action = "Continue normal monitoring."
	}
	return a
}
