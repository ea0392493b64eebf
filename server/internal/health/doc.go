// Package health maps raw machine readings to a bounded health score.
//
// score.go provides the pure Score function (and the configurable Scorer)
// using the linear penalty formula:
//
//	100 - (temperature - base_temperature)*2.2 - (vibration - base_vibration)*15
//
// clamped to [0, 100]. TierOf classifies a score into critical (<60),
// warning (60–89.99) or healthy (>=90); boundaries belong to the better tier.
//
// assess.go turns a score into the maintenance assessment shown to operators.
package health
