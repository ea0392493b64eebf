package fleet

import (
	"sort"
	"time"

	"github.com/smartfactory/sentinel/pkg/types"
	"github.com/smartfactory/sentinel/server/internal/health"
	"github.com/smartfactory/sentinel/server/internal/telemetry"
)

// Dataset is one generation run: its parameters, seed and readings.
// A Dataset is never modified after construction, so it may be shared by any
// number of goroutines without locking.
type Dataset struct {
	params      telemetry.Params
	seed        uint64
	generatedAt time.Time

	readings []types.Reading
	byID     map[int][]types.Reading // per machine, ascending hour
	ids      []int
}

// Summary counts machines per tier over their latest readings.
type Summary struct {
	Total    int `json:"total_machines"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Healthy  int `json:"healthy"`
}

// Stats is the min/max/mean of each channel for one machine.
type Stats struct {
	MachineID   int          `json:"machine_id"`
	Samples     int          `json:"samples"`
	Temperature ChannelStats `json:"temperature"`
	Vibration   ChannelStats `json:"vibration"`
	HealthScore ChannelStats `json:"health_score"`
}

// ChannelStats summarises one numeric channel.
type ChannelStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Generate runs the telemetry generator and wraps the result in a Dataset.
// The seed is recorded so the run can be reproduced.
func Generate(p telemetry.Params, seed uint64, now time.Time) (*Dataset, error) {
	rs, err := telemetry.Generate(p, telemetry.NewNoise(seed))
	if err != nil {
		return nil, err
	}
	return NewDataset(p, seed, now, rs), nil
}

// NewDataset builds a Dataset from readings in any order. The slice is copied.
func NewDataset(p telemetry.Params, seed uint64, generatedAt time.Time, rs []types.Reading) *Dataset {
	d := &Dataset{
		params:      p,
		seed:        seed,
		generatedAt: generatedAt,
		readings:    make([]types.Reading, len(rs)),
		byID:        make(map[int][]types.Reading),
	}
	copy(d.readings, rs)
	sort.SliceStable(d.readings, func(i, j int) bool {
		a, b := d.readings[i], d.readings[j]
		if a.MachineID != b.MachineID {
			return a.MachineID < b.MachineID
		}
		return a.Hour < b.Hour
	})

	for i, r := range d.readings {
		if _, ok := d.byID[r.MachineID]; !ok {
			d.ids = append(d.ids, r.MachineID)
		}
		// Sub-slices of the sorted backing array; capacity is capped so an
		// append by a caller can never overwrite a neighbour.
		d.byID[r.MachineID] = d.readings[i-len(d.byID[r.MachineID]) : i+1 : i+1]
	}
	return d
}

// Params returns the generation parameters.
func (d *Dataset) Params() telemetry.Params { return d.params }

// Seed returns the noise seed used for generation.
func (d *Dataset) Seed() uint64 { return d.seed }

// GeneratedAt returns when the dataset was produced.
func (d *Dataset) GeneratedAt() time.Time { return d.generatedAt }

// Len returns the number of readings.
func (d *Dataset) Len() int { return len(d.readings) }

// Readings returns a copy of every reading ordered by machine then hour.
func (d *Dataset) Readings() []types.Reading {
	out := make([]types.Reading, len(d.readings))
	copy(out, d.readings)
	return out
}

// MachineIDs returns the machine identifiers in ascending order.
func (d *Dataset) MachineIDs() []int {
	out := make([]int, len(d.ids))
	copy(out, d.ids)
	return out
}

// Latest returns the reading with the highest hour for each machine,
// ordered by machine ID.
func (d *Dataset) Latest() []types.Reading {
	out := make([]types.Reading, 0, len(d.ids))
	for _, id := range d.ids {
		h := d.byID[id]
		out = append(out, h[len(h)-1])
	}
	return out
}

// LatestFor returns the latest reading for one machine.
func (d *Dataset) LatestFor(id int) (types.Reading, bool) {
	h, ok := d.byID[id]
	if !ok {
		return types.Reading{}, false
	}
	return h[len(h)-1], true
}

// Summary classifies every machine's latest reading. The counts always sum
// to Total, the number of machines in the dataset.
func (d *Dataset) Summary() Summary {
	return Summarize(d.Latest())
}

// Summarize counts tiers over a set of latest-per-machine readings.
func Summarize(latest []types.Reading) Summary {
	s := Summary{Total: len(latest)}
	for _, r := range latest {
		switch health.TierOf(r.HealthScore) {
		case types.TierCritical:
			s.Critical++
		case types.TierWarning:
			s.Warning++
		default:
			s.Healthy++
		}
	}
	return s
}

// History returns all readings of one machine in ascending hour order.
// ok is false if the machine is not part of the dataset.
func (d *Dataset) History(id int) ([]types.Reading, bool) {
	h, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	out := make([]types.Reading, len(h))
	copy(out, h)
	return out, true
}

// Window returns the readings of one machine with from <= hour < to.
// An empty or inverted range yields an empty, non-nil slice.
func (d *Dataset) Window(id, from, to int) ([]types.Reading, bool) {
	h, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	out := make([]types.Reading, 0)
	for _, r := range h {
		if r.Hour >= from && r.Hour < to {
			out = append(out, r)
		}
	}
	return out, true
}

// Stats summarises each channel of one machine's history.
func (d *Dataset) Stats(id int) (Stats, bool) {
	h, ok := d.byID[id]
	if !ok || len(h) == 0 {
		return Stats{}, false
	}
	st := Stats{MachineID: id, Samples: len(h)}
	st.Temperature = channel(h, func(r types.Reading) float64 { return r.Temperature })
	st.Vibration = channel(h, func(r types.Reading) float64 { return r.Vibration })
	st.HealthScore = channel(h, func(r types.Reading) float64 { return r.HealthScore })
	return st, true
}

func channel(rs []types.Reading, get func(types.Reading) float64) ChannelStats {
	first := get(rs[0])
	cs := ChannelStats{Min: first, Max: first}
	var sum float64
	for _, r := range rs {
		v := get(r)
		if v < cs.Min {
			cs.Min = v
		}
		if v > cs.Max {
			cs.Max = v
		}
		sum += v
	}
	cs.Mean = sum / float64(len(rs))
	return cs
}
