// PrintDeck Core - 3D printer fleet dashboard backend
//
// This is the main entry point for the PrintDeck Core application.
// PrintDeck supervises Klipper/Moonraker printer controllers:
//   - Printer registry persisted as a JSON snapshot
//   - Live state polling with WebSocket fan-out
//   - Proxy endpoints for telemetry, control, console, and macros
//   - Optional MQTT state mirror and InfluxDB telemetry history
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/printdeck/printdeck/migrations"

	"github.com/printdeck/printdeck/internal/api"
	"github.com/printdeck/printdeck/internal/history"
	"github.com/printdeck/printdeck/internal/infrastructure/config"
	"github.com/printdeck/printdeck/internal/infrastructure/database"
	"github.com/printdeck/printdeck/internal/infrastructure/influxdb"
	"github.com/printdeck/printdeck/internal/infrastructure/logging"
	"github.com/printdeck/printdeck/internal/infrastructure/mqtt"
	"github.com/printdeck/printdeck/internal/moonraker"
	"github.com/printdeck/printdeck/internal/registry"
	"github.com/printdeck/printdeck/internal/statesync"
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

// Transition history retention. Rows older than the retention window are
// deleted by a daily sweep.
const (
	historyRetention     = 90 * 24 * time.Hour
	historyPruneInterval = 24 * time.Hour
)

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
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting PrintDeck Core",
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
	log.Info("site configured",
		"id", cfg.Site.ID,
		"name", cfg.Site.Name,
		"timezone", cfg.Site.Timezone,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// State transition history
	historyRepo := history.NewSQLiteRepository(db.DB)
	recorder := history.NewRecorder(historyRepo, log)
	go pruneHistoryLoop(ctx, historyRepo, log)

	// Printer registry snapshot store
	store := registry.NewStore(cfg.Registry.Path, cfg.GetCacheTTL())
	store.SetLogger(log)
	log.Info("registry store initialised", "path", cfg.Registry.Path)

	// Moonraker upstream client
	upstream := moonraker.NewClient(cfg.Moonraker.BaseURL, cfg.GetMoonrakerTimeout())

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// State poller
	poller := statesync.New(statesync.Config{
		Interval: cfg.GetPollInterval(),
		Debounce: cfg.GetPollDebounce(),
	}, store, upstream, log)

	// API server (created before the poller starts so the WebSocket hub can
	// be registered as a fan-out sink)
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		Store:     store,
		Upstream:  upstream,
		History:   historyRepo,
		Notifier:  poller,
		Forgetter: recorder,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Wire poller fan-out: live dashboard updates, transition history,
	// optional broker mirror and telemetry metrics.
	poller.AddSink(server.Hub())
	poller.AddSink(recorder)
	if mqttClient != nil {
		topics := mqtt.Topics{}
		poller.AddSink(statesync.NewMQTTSink(mqttClient, topics.PrinterState, log))
	}
	if influxClient != nil {
		metrics := statesync.NewMetricsSink(influxClient)
		poller.AddSink(metrics)
		poller.AddOverviewSink(metrics)
	}

	if cfg.Poller.Enabled {
		poller.Start(ctx)
		defer func() {
			log.Info("stopping state poller")
			if closeErr := poller.Close(); closeErr != nil {
				log.Error("error closing poller", "error", closeErr)
			}
		}()
		log.Info("state poller started",
			"interval", cfg.GetPollInterval(),
			"debounce", cfg.GetPollDebounce(),
		)
	} else {
		log.Info("state poller disabled")
	}

	// Start API server
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Poller (final state flush)
	// 3. InfluxDB / MQTT (if enabled)
	// 4. Database

	log.Info("PrintDeck Core stopped")
	return nil
}

// pruneHistoryLoop deletes state transitions older than the retention window
// once per day, and once at startup. Runs until the context is cancelled.
func pruneHistoryLoop(ctx context.Context, repo history.Repository, log *logging.Logger) {
	ticker := time.NewTicker(historyPruneInterval)
	defer ticker.Stop()

	for {
		deleted, err := repo.Prune(ctx, historyRetention)
		if err != nil {
			log.Error("pruning state transitions failed", "error", err)
		} else if deleted > 0 {
			log.Info("pruned state transitions", "deleted", deleted, "retention", historyRetention)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses PRINTDECK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PRINTDECK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
