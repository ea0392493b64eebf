package api

import (
	"log/slog"
	"net/http"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/smartfactory/sentinel/pkg/types"
	"github.com/smartfactory/sentinel/server/internal/fleet"
	"github.com/smartfactory/sentinel/server/internal/health"
)

// Exposed metric names.
const (
	metricTemperature = "sentinel_machine_temperature"
	metricVibration   = "sentinel_machine_vibration"
	metricHealthScore = "sentinel_machine_health_score"
	metricHour        = "sentinel_machine_hour"
	metricFleet       = "sentinel_fleet_machines"
	metricAlerts      = "sentinel_alerts_firing"
)

// metrics returns GET /metrics: the latest reading per machine as Prometheus
// gauges, plus tier counts and the number of firing alerts.
func (h *Handler) metrics(w http.ResponseWriter, _ *http.Request) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range buildFamilies(h.store.Current(), h.firingAlerts()) {
		if err := enc.Encode(mf); err != nil {
			slog.Warn("api: metrics encode failed", "family", mf.GetName(), "err", err)
			return
		}
	}
}

// buildFamilies converts the dataset into metric families. A nil dataset
// yields only the alert gauge.
func buildFamilies(ds *fleet.Dataset, firing int) []*dto.MetricFamily {
	alerts := gaugeFamily(metricAlerts, "Number of alerts currently firing.")
	alerts.Metric = append(alerts.Metric, gauge(float64(firing)))
	if ds == nil {
		return []*dto.MetricFamily{alerts}
	}

	temp := gaugeFamily(metricTemperature, "Latest temperature reading in degrees Celsius.")
	vib := gaugeFamily(metricVibration, "Latest vibration reading in mm/s.")
	score := gaugeFamily(metricHealthScore, "Latest health score between 0 and 100.")
	hour := gaugeFamily(metricHour, "Hour index of the latest reading.")

	latest := ds.Latest()
	for _, r := range latest {
		id := strconv.Itoa(r.MachineID)
		temp.Metric = append(temp.Metric, gauge(r.Temperature, "machine_id", id))
		vib.Metric = append(vib.Metric, gauge(r.Vibration, "machine_id", id))
		score.Metric = append(score.Metric, gauge(r.HealthScore, "machine_id", id, "tier", string(health.TierOf(r.HealthScore))))
		hour.Metric = append(hour.Metric, gauge(float64(r.Hour), "machine_id", id))
	}

	s := fleet.Summarize(latest)
	tiers := gaugeFamily(metricFleet, "Machines per health tier.")
	tiers.Metric = append(tiers.Metric,
		gauge(float64(s.Critical), "tier", string(types.TierCritical)),
		gauge(float64(s.Healthy), "tier", string(types.TierHealthy)),
		gauge(float64(s.Warning), "tier", string(types.TierWarning)),
	)

	return []*dto.MetricFamily{temp, vib, score, hour, tiers, alerts}
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: strPtr(name),
		Help: strPtr(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

// gauge builds one sample. labels are name/value pairs.
func gauge(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: &v}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{Name: strPtr(labels[i]), Value: strPtr(labels[i+1])})
	}
	return m
}

func strPtr(s string) *string { return &s }
