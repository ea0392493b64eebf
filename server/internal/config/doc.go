// Package config loads and watches the sentinel configuration file (config.yaml).
//
// Config sections:
//   - server    : http_port (default 8080), broadcast_interval (default 5s),
//     auth {mode apikey|none, key_env, header (default "X-API-Key")}
//   - simulation: machines, hours, base_machine_id, critical_machine_id
//     (0 = 4th machine), degrade_start_hour, seed (0 = fresh per generation),
//     refresh (0 = generate once), baseline/noise/degradation per channel
//   - alerts    : rules {name, condition, severity, cooldown} and
//     webhooks {type teams|slack|http, url_env}
//
// Load(path) applies defaults before unmarshalling, then validates. Invalid
// simulation parameters are rejected here as a configuration error, wrapping
// telemetry.ErrInvalidParameter.
//
// Watch(ctx, path, onChange) uses fsnotify on the parent directory to detect
// changes to the file and calls onChange with the newly parsed Config.
//
// LoadEnv(path) exports a dotenv file (github.com/joho/godotenv) so that
// key_env and url_env can name variables kept outside config.yaml.
package config
