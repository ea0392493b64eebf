package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smartfactory/sentinel/server/internal/telemetry"
)

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "health_score < 60", "temperature > 95",
	// "vibration >= 1.2", "tier == critical".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultBroadcastInterval = 5 * time.Second
)

// Config holds the sentinel configuration parsed from config.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	Alerts     AlertsConfig     `yaml:"alerts"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// BroadcastInterval is how often the WebSocket hub pushes a snapshot.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// Auth configures how the server authenticates REST clients.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls client authentication on the REST API.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "X-API-Key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
}

// SimulationConfig controls telemetry generation.
type SimulationConfig struct {
	Machines          int `yaml:"machines"`
	Hours             int `yaml:"hours"`
	BaseMachineID     int `yaml:"base_machine_id"`
	CriticalMachineID int `yaml:"critical_machine_id"` // 0 selects the 4th machine
	DegradeStartHour  int `yaml:"degrade_start_hour"`

	// Seed fixes the noise source. 0 picks a fresh seed per generation.
	Seed uint64 `yaml:"seed"`

	// Refresh regenerates the dataset on this interval. 0 generates once.
	Refresh time.Duration `yaml:"refresh"`

	Baseline    ChannelConfig `yaml:"baseline"`
	Noise       ChannelConfig `yaml:"noise"`
	Degradation ChannelConfig `yaml:"degradation"`
}

// ChannelConfig is one value per sensor channel.
type ChannelConfig struct {
	Temperature float64 `yaml:"temperature"`
	Vibration   float64 `yaml:"vibration"`
}

// Params converts the simulation section into generator parameters.
func (s SimulationConfig) Params() telemetry.Params {
	critical := s.CriticalMachineID
	if critical == 0 {
		critical = s.BaseMachineID + telemetry.DefaultCriticalOffset
	}
	return telemetry.Params{
		NumMachines:       s.Machines,
		Hours:             s.Hours,
		BaseMachineID:     s.BaseMachineID,
		CriticalMachineID: critical,
		DegradeStartHour:  s.DegradeStartHour,
		BaseTemperature:   s.Baseline.Temperature,
		BaseVibration:     s.Baseline.Vibration,
		TemperatureNoise:  s.Noise.Temperature,
		VibrationNoise:    s.Noise.Vibration,
		TemperatureRate:   s.Degradation.Temperature,
		VibrationRate:     s.Degradation.Vibration,
	}
}

// Load reads and parses the config file at path.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	p := telemetry.DefaultParams()
	return &Config{
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
		},
		Simulation: SimulationConfig{
			Machines:         p.NumMachines,
			Hours:            p.Hours,
			BaseMachineID:    p.BaseMachineID,
			DegradeStartHour: p.DegradeStartHour,
			Baseline:         ChannelConfig{Temperature: p.BaseTemperature, Vibration: p.BaseVibration},
			Noise:            ChannelConfig{Temperature: p.TemperatureNoise, Vibration: p.VibrationNoise},
			Degradation:      ChannelConfig{Temperature: p.TemperatureRate, Vibration: p.VibrationRate},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Simulation.Refresh < 0 {
		return fmt.Errorf("simulation.refresh must not be negative")
	}
	if err := cfg.Simulation.Params().Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("alerts.rules[%d] %q: condition is required", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "teams", "slack", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}
	return nil
}
