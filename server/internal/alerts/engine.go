package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartfactory/sentinel/server/internal/config"
	"github.com/smartfactory/sentinel/server/internal/fleet"
	"github.com/smartfactory/sentinel/server/internal/health"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// DefaultRules mirror the dashboard tiers: one alert per machine in the
// critical tier and one per machine in the warning tier.
var DefaultRules = []config.AlertRule{
	{Name: "machine-critical", Condition: "tier == critical", Severity: "critical"},
	{Name: "machine-warning", Condition: "tier == warning", Severity: "warning"},
}

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	MachineID  int        `json:"machine_id"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Action     string     `json:"action"`
	Value      float64    `json:"value"`
	Hour       int        `json:"hour"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against each machine's latest reading and
// delivers webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []config.AlertRule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:machineID"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts
	client   *http.Client
	now      func() time.Time
	inflight sync.WaitGroup
}

// New creates an Engine from the alert configuration. Rules with an
// unparseable condition are logged and skipped. With no rules configured the
// engine falls back to DefaultRules.
func New(cfg config.AlertsConfig) *Engine {
	rules := cfg.Rules
	if len(rules) == 0 {
		rules = DefaultRules
	}
	e := &Engine{
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
	for _, r := range rules {
		if !validCondition(r.Condition) {
			slog.Warn("alerts: skipping rule with unparseable condition",
				"rule", r.Name, "condition", r.Condition)
			continue
		}
		e.rules = append(e.rules, r)
	}
	return e
}

// Rules returns the rules the engine evaluates.
func (e *Engine) Rules() []config.AlertRule {
	out := make([]config.AlertRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate tests every rule against the latest reading of every machine in ds.
// Newly firing alerts are stored and delivered asynchronously; alerts whose
// condition no longer holds, or whose machine left the fleet, are resolved.
func (e *Engine) Evaluate(ds *fleet.Dataset) {
	if ds == nil || len(e.rules) == 0 {
		return
	}

	now := e.now()
	seen := make(map[string]bool)
	var outbox []Alert

	e.mu.Lock()
	for _, r := range ds.Latest() {
		action := health.Assess(r.MachineID, r.HealthScore).Action
		for _, rule := range e.rules {
			key := rule.Name + ":" + strconv.Itoa(r.MachineID)
			seen[key] = true
			fires, value := evalCondition(rule.Condition, r)

			if !fires {
				if a := e.resolveLocked(key, now); a != nil {
					outbox = append(outbox, *a)
				}
				continue
			}
			if _, ok := e.active[key]; ok {
				continue
			}
			cooldown := rule.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			if last, ok := e.lastFire[key]; ok && now.Sub(last) < cooldown {
				continue
			}
			sev := rule.Severity
			if sev == "" {
				sev = "warning"
			}
			a := &Alert{
				ID:        uuid.New().String(),
				RuleName:  rule.Name,
				MachineID: r.MachineID,
				Severity:  sev,
				Value:     value,
				Hour:      r.Hour,
				Action:    action,
				Message: fmt.Sprintf("[%s] %s fired on machine %d at hour %d: %s (value %.2f)",
					sev, rule.Name, r.MachineID, r.Hour, rule.Condition, value),
				FiredAt: now,
				State:   "firing",
			}
			e.active[key] = a
			e.lastFire[key] = now
			outbox = append(outbox, *a)

			slog.Warn("alert fired",
				"rule", rule.Name,
				"machine", r.MachineID,
				"value", value,
				"severity", sev,
			)
		}
	}
	for key := range e.active {
		if !seen[key] {
			if a := e.resolveLocked(key, now); a != nil {
				outbox = append(outbox, *a)
			}
		}
	}
	e.mu.Unlock()

	for i := range outbox {
		a := outbox[i]
		e.inflight.Add(1)
		go func() {
			defer e.inflight.Done()
			e.deliver(&a)
		}()
	}
}

// resolveLocked moves the firing alert under key into history.
// Callers must hold e.mu.
func (e *Engine) resolveLocked(key string, now time.Time) *Alert {
	a, ok := e.active[key]
	if !ok {
		return nil
	}
	resolved := now
	a.State = "resolved"
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	slog.Info("alert resolved", "rule", a.RuleName, "machine", a.MachineID)
	cp := *a
	return &cp
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, firing first, then newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].State == "firing") != (out[j].State == "firing") {
			return out[i].State == "firing"
		}
		if !out[i].FiredAt.Equal(out[j].FiredAt) {
			return out[i].FiredAt.After(out[j].FiredAt)
		}
		if out[i].MachineID != out[j].MachineID {
			return out[i].MachineID < out[j].MachineID
		}
		return out[i].RuleName < out[j].RuleName
	})
	return out
}

// FiringCount returns the number of currently firing alerts.
func (e *Engine) FiringCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// Wait blocks until all in-flight webhook deliveries have finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}
