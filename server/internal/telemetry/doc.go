// Package telemetry synthesises sensor readings for a fleet of machines.
//
// Generate(params, noise) produces the full (machine, hour) grid in one pass:
// every reading is the machine baseline plus independent gaussian noise per
// channel, and the configured critical machine additionally drifts upward
// linearly from DegradeStartHour onward. Health scores are computed inline
// with the health package.
//
// Parameters are validated eagerly; any violation returns an error wrapping
// ErrInvalidParameter and no readings at all. The noise source is injected so
// tests can seed it or disable it by zeroing the standard deviations.
package telemetry
