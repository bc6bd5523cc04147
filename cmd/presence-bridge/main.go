// Presence Bridge - DMX to OSC presence relay
//
// This is the main entry point for the presence bridge. The bridge reads
// DMX frames from an Enttec DMX USB Pro, extracts a single presence
// channel, and drives an RNBO runner's fade-trigger parameter over OSC,
// with OSCQuery-based discovery of the runner and its parameter path.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkransborg/presence-bridge/internal/bridge"
	"github.com/mkransborg/presence-bridge/internal/enttec"
	"github.com/mkransborg/presence-bridge/internal/infrastructure/config"
	"github.com/mkransborg/presence-bridge/internal/infrastructure/logging"
	"github.com/mkransborg/presence-bridge/internal/infrastructure/mqtt"
	"github.com/mkransborg/presence-bridge/internal/rnbo"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently: 0 on
// clean shutdown, 1 on setup failure.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting presence bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Optional MQTT status mirror
	var status bridge.StatusPublisher
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT broker: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT broker")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT client", "error", closeErr)
			}
		}()
		mqttClient.SetOnDisconnect(func(discErr error) {
			log.Warn("MQTT connection lost", "error", discErr)
		})
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected", "broker", cfg.MQTT.Broker.Host)
		})
		status = mqttClient
		log.Info("MQTT status publishing enabled",
			"broker", cfg.MQTT.Broker.Host,
			"port", cfg.MQTT.Broker.Port,
		)
	}

	// RNBO runner connection (bound during bridge setup)
	conn := rnbo.NewConnection(rnbo.Config{
		OSCPort:      cfg.RNBO.OSCPort,
		QueryPort:    cfg.RNBO.OSCQueryPort,
		QueryTimeout: cfg.GetQueryTimeout(),
	}, log)

	b := bridge.New(bridge.Options{
		Channel:        cfg.DMX.PresenceChannel,
		ParameterPath:  cfg.RNBO.ParameterPath,
		CandidatePaths: cfg.RNBO.CandidatePaths,
		PollInterval:   cfg.GetPollInterval(),
		MaxRetries:     cfg.Bridge.Discovery.MaxRetries,
		RetryDelay:     cfg.GetRetryDelay(),
		Endpoint:       conn,
		OpenSource: func() (bridge.FrameSource, error) {
			return enttec.OpenReceiver(cfg.Serial.Device, cfg.Serial.BaudRate, cfg.GetReadTimeout())
		},
		Status: status,
		Logger: log,
	})
	defer b.Stop()

	if err := b.Setup(ctx); err != nil {
		return fmt.Errorf("bridge setup: %w", err)
	}
	log.Info("bridge setup complete",
		"runner_host", conn.Host(),
		"parameter_path", b.ParameterPath(),
	)

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bridge run: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// getConfigPath returns the config file path from the environment or the
// default.
func getConfigPath() string {
	if path := os.Getenv("PRESENCE_BRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
