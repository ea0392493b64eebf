package fleet

import (
	"testing"
	"time"

	"github.com/smartfactory/sentinel/pkg/types"
	"github.com/smartfactory/sentinel/server/internal/telemetry"
)

// genTime is a fixed reference point so datasets are deterministic.
var genTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func noiselessDataset(t *testing.T) *Dataset {
	t.Helper()
	p := telemetry.DefaultParams()
	p.TemperatureNoise = 0
	p.VibrationNoise = 0
	ds, err := Generate(p, 1, genTime)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return ds
}

func TestGenerate_RecordsHandle(t *testing.T) {
	ds, err := Generate(telemetry.DefaultParams(), 77, genTime)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if ds.Seed() != 77 {
		t.Errorf("Seed = %d, want 77", ds.Seed())
	}
	if !ds.GeneratedAt().Equal(genTime) {
		t.Errorf("GeneratedAt = %v, want %v", ds.GeneratedAt(), genTime)
	}
	if ds.Len() != 6*120 {
		t.Errorf("Len = %d, want 720", ds.Len())
	}
	if ds.Params().CriticalMachineID != 104 {
		t.Errorf("Params().CriticalMachineID = %d, want 104", ds.Params().CriticalMachineID)
	}
}

func TestGenerate_InvalidParamsNoDataset(t *testing.T) {
	p := telemetry.DefaultParams()
	p.Hours = 0
	ds, err := Generate(p, 1, genTime)
	if err == nil || ds != nil {
		t.Fatalf("Generate with hours=0: ds=%v err=%v, want nil dataset and error", ds, err)
	}
}

func TestLatest_OnePerMachineMaxHour(t *testing.T) {
	ds := noiselessDataset(t)
	latest := ds.Latest()
	if len(latest) != 6 {
		t.Fatalf("Latest len = %d, want 6", len(latest))
	}
	for i, r := range latest {
		if r.MachineID != 101+i {
			t.Errorf("Latest[%d].MachineID = %d, want %d", i, r.MachineID, 101+i)
		}
		if r.Hour != 119 {
			t.Errorf("Latest[%d].Hour = %d, want 119", i, r.Hour)
		}
	}
}

func TestSummary_DefaultFleet(t *testing.T) {
	ds := noiselessDataset(t)
	s := ds.Summary()
	// Machine 104 at hour 119 is far past failure; everyone else is at 100.
	want := Summary{Total: 6, Critical: 1, Warning: 0, Healthy: 5}
	if s != want {
		t.Errorf("Summary = %+v, want %+v", s, want)
	}
}

func TestSummarize_CountsSumToTotal(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   Summary
	}{
		{"empty", nil, Summary{}},
		{"boundaries", []float64{60, 90, 59.99, 89.99}, Summary{Total: 4, Critical: 1, Warning: 2, Healthy: 1}},
		{"all healthy", []float64{100, 95, 90}, Summary{Total: 3, Healthy: 3}},
		{"all critical", []float64{0, 10}, Summary{Total: 2, Critical: 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			latest := make([]types.Reading, len(tc.scores))
			for i, s := range tc.scores {
				latest[i] = types.Reading{MachineID: i, HealthScore: s}
			}
			got := Summarize(latest)
			if got != tc.want {
				t.Errorf("Summarize = %+v, want %+v", got, tc.want)
			}
			if got.Critical+got.Warning+got.Healthy != got.Total {
				t.Errorf("counts %+v do not sum to total", got)
			}
		})
	}
}

func TestNewDataset_UnorderedInput(t *testing.T) {
	rs := []types.Reading{
		{MachineID: 2, Hour: 1, HealthScore: 50},
		{MachineID: 1, Hour: 1, HealthScore: 95},
		{MachineID: 2, Hour: 0, HealthScore: 99},
		{MachineID: 1, Hour: 0, HealthScore: 70},
	}
	ds := NewDataset(telemetry.Params{}, 0, genTime, rs)

	if ids := ds.MachineIDs(); len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("MachineIDs = %v, want [1 2]", ids)
	}
	h, ok := ds.History(2)
	if !ok || len(h) != 2 || h[0].Hour != 0 || h[1].Hour != 1 {
		t.Fatalf("History(2) = %+v, want hours 0,1", h)
	}
	latest, ok := ds.LatestFor(2)
	if !ok || latest.HealthScore != 50 {
		t.Errorf("LatestFor(2) = %+v, want score 50", latest)
	}
	s := ds.Summary()
	if s.Total != 2 || s.Healthy != 1 || s.Critical != 1 {
		t.Errorf("Summary = %+v, want 1 healthy + 1 critical", s)
	}

	// Mutating the input after construction does not leak into the dataset.
	rs[0].HealthScore = 0
	if latest, _ := ds.LatestFor(2); latest.HealthScore != 50 {
		t.Error("dataset changed after input slice was mutated")
	}
}

func TestHistory_AscendingAndIsolated(t *testing.T) {
	ds := noiselessDataset(t)
	h, ok := ds.History(104)
	if !ok {
		t.Fatal("History(104): not found")
	}
	if len(h) != 120 {
		t.Fatalf("History len = %d, want 120", len(h))
	}
	for i, r := range h {
		if r.Hour != i || r.MachineID != 104 {
			t.Fatalf("History[%d] = (%d, %d), want (104, %d)", i, r.MachineID, r.Hour, i)
		}
	}

	// Callers get copies: appending or writing must not corrupt the dataset.
	h[0].Temperature = -1
	_ = append(h, types.Reading{MachineID: 104, Hour: 999})
	again, _ := ds.History(104)
	if again[0].Temperature != 70 || len(again) != 120 {
		t.Error("History returned a view into the dataset, want a copy")
	}
	next, _ := ds.History(105)
	if next[0].MachineID != 105 {
		t.Error("neighbouring machine history was overwritten")
	}
}

func TestHistory_UnknownMachine(t *testing.T) {
	ds := noiselessDataset(t)
	if _, ok := ds.History(999); ok {
		t.Error("History(999): expected not found")
	}
	if _, ok := ds.LatestFor(999); ok {
		t.Error("LatestFor(999): expected not found")
	}
	if _, ok := ds.Stats(999); ok {
		t.Error("Stats(999): expected not found")
	}
}

func TestWindow(t *testing.T) {
	ds := noiselessDataset(t)
	tests := []struct {
		from, to int
		wantLen  int
	}{
		{80, 100, 20},
		{0, 120, 120},
		{110, 500, 10},
		{-10, 5, 5},
		{50, 50, 0},
		{60, 40, 0},
	}
	for _, tc := range tests {
		w, ok := ds.Window(104, tc.from, tc.to)
		if !ok {
			t.Fatalf("Window(104, %d, %d): not found", tc.from, tc.to)
		}
		if w == nil || len(w) != tc.wantLen {
			t.Errorf("Window(104, %d, %d) len = %d, want %d", tc.from, tc.to, len(w), tc.wantLen)
		}
	}
}

func TestStats_CriticalMachine(t *testing.T) {
	ds := noiselessDataset(t)
	st, ok := ds.Stats(104)
	if !ok {
		t.Fatal("Stats(104): not found")
	}
	if st.Samples != 120 {
		t.Errorf("Samples = %d, want 120", st.Samples)
	}
	if st.Temperature.Min != 70 {
		t.Errorf("Temperature.Min = %.2f, want 70", st.Temperature.Min)
	}
	// Hour 119 is 39 hours in: 70 + 39*1.8 = 140.2
	if d := st.Temperature.Max - 140.2; d > 1e-9 || d < -1e-9 {
		t.Errorf("Temperature.Max = %.4f, want 140.2", st.Temperature.Max)
	}
	if st.HealthScore.Min != 0 || st.HealthScore.Max != 100 {
		t.Errorf("HealthScore range = [%.2f, %.2f], want [0, 100]", st.HealthScore.Min, st.HealthScore.Max)
	}
	if st.Temperature.Mean <= 70 {
		t.Errorf("Temperature.Mean = %.2f, want above baseline", st.Temperature.Mean)
	}
}
