package alerts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smartfactory/sentinel/pkg/types"
	"github.com/smartfactory/sentinel/server/internal/config"
	"github.com/smartfactory/sentinel/server/internal/fleet"
	"github.com/smartfactory/sentinel/server/internal/telemetry"
)

// baseTime is a fixed reference point so all alert timings are deterministic.
var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// datasetWith builds a one-hour dataset where machine i has score scores[i].
func datasetWith(scores map[int]float64) *fleet.Dataset {
	rs := make([]types.Reading, 0, len(scores))
	for id, s := range scores {
		rs = append(rs, types.Reading{MachineID: id, Hour: 0, Temperature: 70, Vibration: 0.5, HealthScore: s})
	}
	return fleet.NewDataset(telemetry.Params{}, 0, baseTime, rs)
}

func newEngine(cfg config.AlertsConfig, now *time.Time) *Engine {
	e := New(cfg)
	e.now = func() time.Time { return *now }
	return e
}

func TestNew_DefaultRules(t *testing.T) {
	e := New(config.AlertsConfig{})
	if got := len(e.Rules()); got != len(DefaultRules) {
		t.Errorf("Rules: got %d, want %d defaults", got, len(DefaultRules))
	}
}

func TestNew_SkipsInvalidRules(t *testing.T) {
	e := New(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "ok", Condition: "health_score < 60"},
		{Name: "bad", Condition: "pressure > 2"},
	}})
	rules := e.Rules()
	if len(rules) != 1 || rules[0].Name != "ok" {
		t.Errorf("Rules: got %+v, want only the valid rule", rules)
	}
}

func TestEvaluate_DefaultRulesFollowTiers(t *testing.T) {
	now := baseTime
	e := newEngine(config.AlertsConfig{}, &now)

	e.Evaluate(datasetWith(map[int]float64{101: 99, 102: 75, 104: 12}))
	e.Wait()

	active := e.Active()
	if len(active) != 2 {
		t.Fatalf("Active: got %d alerts, want 2", len(active))
	}
	bySev := map[string]*Alert{}
	for _, a := range active {
		bySev[a.Severity] = a
	}
	crit, ok := bySev["critical"]
	if !ok || crit.MachineID != 104 || crit.RuleName != "machine-critical" {
		t.Errorf("critical alert: got %+v", crit)
	}
	if !strings.Contains(crit.Action, "immediate shutdown") {
		t.Errorf("critical action: got %q", crit.Action)
	}
	warn, ok := bySev["warning"]
	if !ok || warn.MachineID != 102 {
		t.Errorf("warning alert: got %+v", warn)
	}
	if crit.ID == "" || crit.ID == warn.ID {
		t.Errorf("alert IDs must be unique and non-empty: %q %q", crit.ID, warn.ID)
	}
}

func TestEvaluate_NoDuplicateWhileFiring(t *testing.T) {
	now := baseTime
	e := newEngine(config.AlertsConfig{}, &now)
	ds := datasetWith(map[int]float64{104: 10})

	e.Evaluate(ds)
	first := e.Active()[0].ID
	now = now.Add(time.Hour)
	e.Evaluate(ds)
	e.Wait()

	if n := e.FiringCount(); n != 1 {
		t.Fatalf("FiringCount: got %d, want 1", n)
	}
	if id := e.Active()[0].ID; id != first {
		t.Errorf("alert re-fired while still firing: %q != %q", id, first)
	}
}

func TestEvaluate_ResolvesWhenConditionClears(t *testing.T) {
	now := baseTime
	e := newEngine(config.AlertsConfig{}, &now)

	e.Evaluate(datasetWith(map[int]float64{104: 10}))
	now = now.Add(time.Minute)
	e.Evaluate(datasetWith(map[int]float64{104: 100}))
	e.Wait()

	if n := e.FiringCount(); n != 0 {
		t.Fatalf("FiringCount: got %d, want 0", n)
	}
	active := e.Active()
	if len(active) != 1 || active[0].State != "resolved" || active[0].ResolvedAt == nil {
		t.Fatalf("Active: got %+v, want one resolved alert", active)
	}

	// Resolved alerts drop out of the listing after the recent window.
	now = now.Add(2 * time.Hour)
	if got := e.Active(); len(got) != 0 {
		t.Errorf("Active after window: got %d, want 0", len(got))
	}
}

func TestEvaluate_ResolvesMachinesLeavingFleet(t *testing.T) {
	now := baseTime
	e := newEngine(config.AlertsConfig{}, &now)

	e.Evaluate(datasetWith(map[int]float64{104: 10, 101: 100}))
	e.Evaluate(datasetWith(map[int]float64{101: 100}))
	e.Wait()

	if n := e.FiringCount(); n != 0 {
		t.Errorf("FiringCount: got %d, want 0 after machine 104 disappeared", n)
	}
}

func TestEvaluate_CooldownSuppressesRefire(t *testing.T) {
	now := baseTime
	e := newEngine(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "hot", Condition: "health_score < 60", Severity: "critical", Cooldown: 10 * time.Minute},
	}}, &now)
	bad := datasetWith(map[int]float64{104: 10})
	good := datasetWith(map[int]float64{104: 100})

	e.Evaluate(bad)  // fires
	e.Evaluate(good) // resolves
	now = now.Add(5 * time.Minute)
	e.Evaluate(bad) // within cooldown: suppressed
	if n := e.FiringCount(); n != 0 {
		t.Fatalf("FiringCount inside cooldown: got %d, want 0", n)
	}

	now = now.Add(10 * time.Minute)
	e.Evaluate(bad) // cooldown elapsed: fires again
	e.Wait()
	if n := e.FiringCount(); n != 1 {
		t.Errorf("FiringCount after cooldown: got %d, want 1", n)
	}
}

func TestEvaluate_NilDatasetNoop(t *testing.T) {
	e := New(config.AlertsConfig{})
	e.Evaluate(nil)
	if n := e.FiringCount(); n != 0 {
		t.Errorf("FiringCount: got %d, want 0", n)
	}
}

func TestEvaluate_DefaultSeverityWarning(t *testing.T) {
	now := baseTime
	e := newEngine(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "any", Condition: "health_score <= 100"},
	}}, &now)
	e.Evaluate(datasetWith(map[int]float64{101: 100}))
	e.Wait()
	if a := e.Active(); len(a) != 1 || a[0].Severity != "warning" {
		t.Errorf("Active: got %+v, want one warning alert", a)
	}
}

func TestActive_FiringBeforeResolved(t *testing.T) {
	now := baseTime
	e := newEngine(config.AlertsConfig{}, &now)

	e.Evaluate(datasetWith(map[int]float64{101: 10, 102: 10}))
	now = now.Add(time.Minute)
	e.Evaluate(datasetWith(map[int]float64{101: 100, 102: 10}))
	e.Wait()

	active := e.Active()
	if len(active) != 2 {
		t.Fatalf("Active: got %d, want 2", len(active))
	}
	if active[0].State != "firing" || active[0].MachineID != 102 {
		t.Errorf("Active[0]: got %+v, want firing alert for 102", active[0])
	}
	if active[1].State != "resolved" || active[1].MachineID != 101 {
		t.Errorf("Active[1]: got %+v, want resolved alert for 101", active[1])
	}
}

// --- webhook delivery ---

func TestDeliver_WebhookTargets(t *testing.T) {
	var mu sync.Mutex
	got := map[string]map[string]interface{}{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: got %q", ct)
		}
		mu.Lock()
		got[r.URL.Path] = body
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	t.Setenv("SLACK_HOOK", srv.URL+"/slack")
	t.Setenv("TEAMS_HOOK", srv.URL+"/teams")
	t.Setenv("HTTP_HOOK", srv.URL+"/http")

	now := baseTime
	e := newEngine(config.AlertsConfig{Webhooks: []config.WebhookConfig{
		{Type: "slack", URLEnv: "SLACK_HOOK"},
		{Type: "teams", URLEnv: "TEAMS_HOOK"},
		{Type: "http", URLEnv: "HTTP_HOOK"},
		{Type: "http", URLEnv: "UNSET_HOOK_ENV"},
	}}, &now)

	e.Evaluate(datasetWith(map[int]float64{104: 10}))
	e.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("webhook calls: got %d paths, want 3 (%v)", len(got), got)
	}
	if text, _ := got["/slack"]["text"].(string); !strings.Contains(text, "[CRITICAL]") || !strings.Contains(text, "Recommended action") {
		t.Errorf("slack text: got %q", text)
	}
	if typ := got["/teams"]["@type"]; typ != "MessageCard" {
		t.Errorf("teams @type: got %v", typ)
	}
	alert, ok := got["/http"]["alert"].(map[string]interface{})
	if !ok || alert["machine_id"].(float64) != 104 || alert["state"] != "firing" {
		t.Errorf("http alert body: got %v", got["/http"])
	}
}

func TestPost_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New(config.AlertsConfig{})
	if err := e.post(srv.URL, []byte(`{}`)); err == nil {
		t.Error("post to 500 endpoint: expected error, got nil")
	}
}

func TestSeverityHelpers(t *testing.T) {
	if severityLabel("critical") != "[CRITICAL]" || severityLabel("other") != "[INFO]" {
		t.Error("severityLabel mapping wrong")
	}
	if severityColor("warning") != "FFAB40" || severityColor("") != "00D4FF" {
		t.Error("severityColor mapping wrong")
	}
}
