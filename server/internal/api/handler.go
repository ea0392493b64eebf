package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/smartfactory/sentinel/pkg/types"
	"github.com/smartfactory/sentinel/server/internal/alerts"
	"github.com/smartfactory/sentinel/server/internal/fleet"
	"github.com/smartfactory/sentinel/server/internal/health"
	"github.com/smartfactory/sentinel/server/internal/store"
)

// AlertLister is the read side of the alert engine.
type AlertLister interface {
	Active() []*alerts.Alert
}

// Handler is the HTTP handler for all /api/v1/* endpoints and /metrics.
// It reads the current dataset from the store and returns JSON responses.
type Handler struct {
	store  *store.Store
	alerts AlertLister
	router *mux.Router
}

// New creates a Handler wired to the dataset store and alert engine and
// registers all routes. al may be nil, in which case no alerts are listed.
func New(st *store.Store, al AlertLister) http.Handler {
	h := &Handler{store: st, alerts: al, router: mux.NewRouter()}

	r := h.router
	r.HandleFunc("/api/v1/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/machines", h.listMachines).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/machines/{id:[0-9]+}", h.getMachine).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/machines/{id:[0-9]+}/history", h.history).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/readings", h.readings).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/alerts", h.listAlerts).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/snapshot", h.snapshot).Methods(http.MethodGet)
	r.HandleFunc("/metrics", h.metrics).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: tier counts over latest readings.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	ds := h.store.Current()
	resp := HealthResponse{State: "unknown", AlertCount: h.firingAlerts()}
	if ds == nil {
		jsonResp(w, http.StatusOK, resp)
		return
	}

	latest := ds.Latest()
	s := fleet.Summarize(latest)
	resp.TotalMachines = s.Total
	resp.CriticalCount = s.Critical
	resp.WarningCount = s.Warning
	resp.HealthyCount = s.Healthy
	resp.GeneratedAt = ds.GeneratedAt().UTC().Format(time.RFC3339)

	if len(latest) > 0 {
		var total float64
		for _, r := range latest {
			total += r.HealthScore
		}
		resp.AverageScore = total / float64(len(latest))
		resp.State = string(overallState(s))
	}
	jsonResp(w, http.StatusOK, resp)
}

// listMachines returns GET /api/v1/machines: latest reading per machine.
func (h *Handler) listMachines(w http.ResponseWriter, _ *http.Request) {
	ds, ok := h.dataset(w)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, toMachines(ds.Latest()))
}

// getMachine returns GET /api/v1/machines/{id}: latest reading, stats and
// the maintenance assessment for one machine.
func (h *Handler) getMachine(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w)
	if !ok {
		return
	}
	id, ok := machineID(w, r)
	if !ok {
		return
	}

	latest, found := ds.LatestFor(id)
	if !found {
		jsonErr(w, http.StatusNotFound, "machine not found")
		return
	}
	stats, _ := ds.Stats(id)
	jsonResp(w, http.StatusOK, MachineDetailResponse{
		MachineResponse: toMachine(latest),
		Stats:           stats,
		Assessment:      health.Assess(id, latest.HealthScore),
	})
}

// history returns GET /api/v1/machines/{id}/history?from=&to=: the machine's
// readings by ascending hour, optionally restricted to from <= hour < to.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w)
	if !ok {
		return
	}
	id, ok := machineID(w, r)
	if !ok {
		return
	}

	from, err := intParam(r, "from", 0)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "from must be an integer hour")
		return
	}
	to, err := intParam(r, "to", ds.Params().Hours)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "to must be an integer hour")
		return
	}
	if to < from {
		jsonErr(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	rs, found := ds.Window(id, from, to)
	if !found {
		jsonErr(w, http.StatusNotFound, "machine not found")
		return
	}
	jsonResp(w, http.StatusOK, HistoryResponse{MachineID: id, From: from, To: to, Readings: rs})
}

// readings returns GET /api/v1/readings: the full dataset.
func (h *Handler) readings(w http.ResponseWriter, _ *http.Request) {
	ds, ok := h.dataset(w)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, ds.Readings())
}

// listAlerts returns GET /api/v1/alerts: firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, _ *http.Request) {
	out := []*alerts.Alert{}
	if h.alerts != nil {
		out = append(out, h.alerts.Active()...)
	}
	jsonResp(w, http.StatusOK, out)
}

// snapshot returns GET /api/v1/snapshot: everything a dashboard needs in one call.
func (h *Handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store, h.alerts))
}

// BuildSnapshot assembles the snapshot payload from the current dataset.
// It is shared by the REST endpoint and the WebSocket hub.
func BuildSnapshot(st *store.Store, al AlertLister) SnapshotResponse {
	resp := SnapshotResponse{Machines: []MachineResponse{}}
	if al != nil {
		resp.AlertCount = countFiring(al.Active())
	}
	ds := st.Current()
	if ds == nil {
		return resp
	}

	latest := ds.Latest()
	resp.Summary = fleet.Summarize(latest)
	resp.Machines = toMachines(latest)
	resp.GeneratedAt = ds.GeneratedAt().UTC().Format(time.RFC3339)
	resp.Params = toParams(ds)
	return resp
}

// --- helpers ----------------------------------------------------------------

// dataset returns the current dataset or writes 503 if none is installed yet.
func (h *Handler) dataset(w http.ResponseWriter) (*fleet.Dataset, bool) {
	ds := h.store.Current()
	if ds == nil {
		jsonErr(w, http.StatusServiceUnavailable, "dataset not generated yet")
		return nil, false
	}
	return ds, true
}

func (h *Handler) firingAlerts() int {
	if h.alerts == nil {
		return 0
	}
	return countFiring(h.alerts.Active())
}

func countFiring(as []*alerts.Alert) int {
	n := 0
	for _, a := range as {
		if a.State == "firing" {
			n++
		}
	}
	return n
}

func machineID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "machine id must be an integer")
		return 0, false
	}
	return id, true
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// overallState reports the worst tier present in the fleet.
func overallState(s fleet.Summary) types.Tier {
	switch {
	case s.Critical > 0:
		return types.TierCritical
	case s.Warning > 0:
		return types.TierWarning
	default:
		return types.TierHealthy
	}
}

func toMachine(r types.Reading) MachineResponse {
	return MachineResponse{
		MachineID:   r.MachineID,
		Hour:        r.Hour,
		Temperature: r.Temperature,
		Vibration:   r.Vibration,
		HealthScore: r.HealthScore,
		Tier:        health.TierOf(r.HealthScore),
	}
}

func toMachines(rs []types.Reading) []MachineResponse {
	out := make([]MachineResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toMachine(r))
	}
	return out
}

func toParams(ds *fleet.Dataset) *ParamsResponse {
	p := ds.Params()
	return &ParamsResponse{
		NumMachines:       p.NumMachines,
		Hours:             p.Hours,
		BaseMachineID:     p.BaseMachineID,
		CriticalMachineID: p.CriticalMachineID,
		DegradeStartHour:  p.DegradeStartHour,
		BaseTemperature:   p.BaseTemperature,
		BaseVibration:     p.BaseVibration,
		TemperatureNoise:  p.TemperatureNoise,
		VibrationNoise:    p.VibrationNoise,
		TemperatureRate:   p.TemperatureRate,
		VibrationRate:     p.VibrationRate,
		Seed:              ds.Seed(),
	}
}
