package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/displayctl/internal/config"
	"codeberg.org/mutker/displayctl/internal/hwconfig"
	"codeberg.org/mutker/displayctl/internal/ipc"
	"codeberg.org/mutker/displayctl/internal/logger"
	"codeberg.org/mutker/displayctl/internal/pid"
	"codeberg.org/mutker/displayctl/internal/refreshrate"
	"codeberg.org/mutker/displayctl/internal/telemetry"
)

var (
	cfg      *config.Config
	engine   *refreshrate.Engine
	recorder telemetry.Recorder
	strategy refreshrate.Strategy
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	if err := initEngine(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize refresh-rate engine")
	}

	if cfg.Telemetry {
		var err error
		recorder, err = telemetry.NewService(telemetry.Config{DBPath: cfg.TelemetryDB})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize decision history")
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close decision history")
			}
		}()
	}

	server := ipc.NewServer(engine, cfg.Socket)
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start control socket")
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	logger.Info().Msg("Exiting...")
}

func initEngine() error {
	table, err := hwconfig.Load(cfg.ModesFile)
	if err != nil {
		return err
	}
	logger.Info().Msgf("Loaded mode table: %s", table.Describe())

	engine, err = refreshrate.NewFromHWConfigs(table.Handles(), refreshrate.ModeID(table.BootMode))
	if err != nil {
		return err
	}

	for id, mode := range engine.AllModes() {
		logger.Debug().
			Int("id", int(id)).
			Int("group", int(mode.Group)).
			Int64("vsync_period_ns", mode.VsyncPeriod).
			Float64("fps", mode.FPS).
			Msg("Detected mode")
	}

	var ok bool
	strategy, ok = refreshrate.ParseStrategy(cfg.Strategy)
	if !ok {
		strategy = refreshrate.StrategyV1
	}

	// -1 keeps the boot mode as the default with an unbounded window.
	if cfg.DefaultMode >= 0 {
		maxRate := cfg.MaxRate
		if maxRate <= 0 {
			maxRate = math.MaxFloat64
		}
		if _, err := engine.SetPolicy(refreshrate.ModeID(cfg.DefaultMode), cfg.MinRate, maxRate); err != nil {
			return err
		}
		policy := engine.GetPolicy()
		logger.Info().
			Int("default_mode", int(policy.DefaultMode)).
			Float64("min_rate", policy.MinFPS).
			Msg("Applied configured policy")
	}

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func loop(ctx context.Context) error {
	interval := time.Duration(cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			logState(ctx)
		}
	}
}

// logState reports where policy says the display should be relative to
// where it is, and records the decision when telemetry is on. Content
// selections arrive over the control socket; this loop only surfaces
// the policy baseline.
func logState(ctx context.Context) {
	current := engine.CurrentMode()
	selected := engine.SelectByPolicy()
	policy := engine.GetPolicy()

	logger.Info().
		Str("current_mode", current.Name).
		Str("selected_mode", selected.Name).
		Float64("min_rate", policy.MinFPS).
		Float64("max_rate", policy.MaxFPS).
		Msg("")

	if recorder == nil {
		return
	}

	snapshot := &telemetry.DecisionSnapshot{
		Timestamp: time.Now(),
		Current:   telemetry.ModeMetrics{ID: int(current.ID), FPS: current.FPS},
		Selected:  telemetry.ModeMetrics{ID: int(selected.ID), FPS: selected.FPS},
		Policy: telemetry.PolicyMetrics{
			DefaultMode: int(policy.DefaultMode),
			MinFPS:      policy.MinFPS,
			MaxFPS:      policy.MaxFPS,
		},
		Strategy: strategy.String(),
	}
	if err := recorder.Record(ctx, snapshot); err != nil {
		logger.Error().Err(err).Msg("failed to record decision")
	}
}
