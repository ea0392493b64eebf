package alerts

import (
	"strconv"
	"strings"

	"github.com/smartfactory/sentinel/pkg/types"
	"github.com/smartfactory/sentinel/server/internal/health"
)

// evalCondition evaluates a rule condition string against one reading.
//
// Supported expressions (field operator value):
//
//	health_score < 60
//	temperature > 95
//	vibration >= 1.2
//	hour >= 100
//	tier == critical
//	tier != healthy
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, r types.Reading) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "tier" {
		tier := string(health.TierOf(r.HealthScore))
		switch op {
		case "==":
			return tier == rhs, r.HealthScore
		case "!=":
			return tier != rhs, r.HealthScore
		}
		return false, 0
	}

	v, ok := numericField(field, r)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// validCondition reports whether cond parses into a known field and operator.
func validCondition(cond string) bool {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false
	}
	if parts[0] == "tier" {
		return parts[1] == "==" || parts[1] == "!="
	}
	if _, ok := numericField(parts[0], types.Reading{}); !ok {
		return false
	}
	if _, err := strconv.ParseFloat(parts[2], 64); err != nil {
		return false
	}
	switch parts[1] {
	case ">", ">=", "<", "<=", "==", "!=":
		return true
	}
	return false
}

// numericField maps a field name to its value in the reading.
func numericField(field string, r types.Reading) (float64, bool) {
	switch field {
	case "health_score":
		return r.HealthScore, true
	case "temperature":
		return r.Temperature, true
	case "vibration":
		return r.Vibration, true
	case "hour":
		return float64(r.Hour), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
