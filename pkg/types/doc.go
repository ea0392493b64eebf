// Package types defines shared Go types used across the sentinel packages.
// These are the canonical in-memory representations of machine telemetry,
// separate from the JSON shapes served by the API.
package types
