package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/smartfactory/sentinel/server/internal/alerts"
	"github.com/smartfactory/sentinel/server/internal/api"
	"github.com/smartfactory/sentinel/server/internal/auth"
	"github.com/smartfactory/sentinel/server/internal/config"
	"github.com/smartfactory/sentinel/server/internal/fleet"
	"github.com/smartfactory/sentinel/server/internal/store"
	"github.com/smartfactory/sentinel/server/internal/telemetry"
	"github.com/smartfactory/sentinel/server/internal/ws"
)

// exitConfig is the exit status for an unusable configuration.
const exitConfig = 2

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "dotenv file with secrets referenced by key_env/url_env; ignored if absent")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("sentinel starting", "config", *configPath)

	if err := config.LoadEnv(*envFile); err != nil {
		slog.Error("failed to load env file", "err", err)
		os.Exit(exitConfig)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(exitConfig)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"machines", cfg.Simulation.Machines,
		"hours", cfg.Simulation.Hours,
		"refresh", cfg.Simulation.Refresh,
	)

	// The simulation section is swapped on hot reload; regen always reads
	// the latest one.
	var sim atomic.Pointer[config.SimulationConfig]
	sim.Store(&cfg.Simulation)
	regen := func(now time.Time) (*fleet.Dataset, error) {
		return generate(*sim.Load(), now)
	}

	ds, err := regen(time.Now())
	if err != nil {
		slog.Error("failed to generate dataset", "err", err)
		if errors.Is(err, telemetry.ErrInvalidParameter) {
			os.Exit(exitConfig)
		}
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New(ds)
	alertEngine := alerts.New(cfg.Alerts)
	alertEngine.Evaluate(ds)
	st.OnReplace(alertEngine.Evaluate)

	hub := ws.New(st, alertEngine, cfg.Server.BroadcastInterval)
	st.OnReplace(hub.DatasetReplaced)
	go hub.Run(ctx)

	go st.Run(ctx, cfg.Simulation.Refresh, regen)

	// Hot reload regenerates the dataset wholesale. A rejected file leaves
	// the previous dataset and settings active.
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			ds, err := generate(next.Simulation, time.Now())
			if err != nil {
				slog.Warn("config: reload rejected, keeping previous dataset", "err", err)
				return
			}
			sim.Store(&next.Simulation)
			st.Replace(ds)
		})
		if err != nil {
			slog.Warn("config watch stopped", "err", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           newRouter(cfg.Server.Auth, st, alertEngine, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("sentinel shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	alertEngine.Wait()
}

// generate builds one dataset from the simulation settings. A zero seed
// draws a fresh one from the clock.
func generate(s config.SimulationConfig, now time.Time) (*fleet.Dataset, error) {
	seed := s.Seed
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}
	return fleet.Generate(s.Params(), seed, now)
}

// newRouter mounts the REST API, the WebSocket hub and the liveness probe
// behind API key auth and request logging.
func newRouter(ac config.AuthConfig, st *store.Store, al api.AlertLister, hub http.Handler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok") //nolint:errcheck
	}).Methods(http.MethodGet)
	r.Handle("/ws/stream", hub)
	r.PathPrefix("/").Handler(api.New(st, al))

	protected := auth.APIKey(ac.Mode, ac.EffectiveHeader(), ac.Key(), "/healthz")(r)
	return handlers.RecoveryHandler()(handlers.CustomLoggingHandler(io.Discard, protected, logRequest))
}

// logRequest writes one access log line through slog instead of the
// combined log format.
func logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	slog.Info("http: request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"duration_ms", time.Since(p.TimeStamp).Milliseconds(),
	)
}
