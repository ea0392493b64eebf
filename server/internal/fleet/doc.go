// Package fleet holds the immutable generated dataset and its read-only
// projections: latest reading per machine, tier summary, per-machine history,
// hour windows and channel statistics.
package fleet
