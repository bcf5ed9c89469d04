package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for PrintDeck Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Registry  RegistryConfig  `yaml:"registry"`
	Database  DatabaseConfig  `yaml:"database"`
	Moonraker MoonrakerConfig `yaml:"moonraker"`
	Poller    PollerConfig    `yaml:"poller"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// RegistryConfig contains printer registry snapshot settings.
type RegistryConfig struct {
	// Path is the filesystem path to the snapshot JSON file.
	Path string `yaml:"path"`

	// CacheTTL is how long a snapshot read is served from memory
	// before re-reading the file (seconds).
	CacheTTL int `yaml:"cache_ttl"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MoonrakerConfig contains settings for the upstream Moonraker API.
type MoonrakerConfig struct {
	// BaseURL is the default printer origin used when a request does not
	// carry its own baseUrl parameter.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout for upstream calls (seconds).
	Timeout int `yaml:"timeout"`
}

// PollerConfig contains live-state poller settings.
type PollerConfig struct {
	Enabled bool `yaml:"enabled"`

	// Interval between full polling sweeps (seconds).
	Interval int `yaml:"interval"`

	// Debounce delay before pushing derived states to the snapshot
	// store after a change (milliseconds).
	Debounce int `yaml:"debounce"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PRINTDECK_SECTION_KEY
// For example: PRINTDECK_REGISTRY_PATH, PRINTDECK_MOONRAKER_URL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "printdeck-001",
			Name:     "PrintDeck",
			Timezone: "UTC",
		},
		Registry: RegistryConfig{
			Path:     "./data/registry.json",
			CacheTTL: 5,
		},
		Database: DatabaseConfig{
			Path:        "./data/printdeck.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Moonraker: MoonrakerConfig{
			Timeout: 8,
		},
		Poller: PollerConfig{
			Enabled:  true,
			Interval: 45,
			Debounce: 800,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "printdeck-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PRINTDECK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Registry
	if v := os.Getenv("PRINTDECK_REGISTRY_PATH"); v != "" {
		cfg.Registry.Path = v
	}

	// Database
	if v := os.Getenv("PRINTDECK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Moonraker
	if v := os.Getenv("PRINTDECK_MOONRAKER_URL"); v != "" {
		cfg.Moonraker.BaseURL = v
	}

	// API
	if v := os.Getenv("PRINTDECK_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// MQTT
	if v := os.Getenv("PRINTDECK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PRINTDECK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PRINTDECK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("PRINTDECK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Registry validation
	if c.Registry.Path == "" {
		errs = append(errs, "registry.path is required")
	}
	if c.Registry.CacheTTL < 0 {
		errs = append(errs, "registry.cache_ttl must not be negative")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Moonraker validation
	if c.Moonraker.Timeout <= 0 {
		errs = append(errs, "moonraker.timeout must be positive")
	}

	// Poller validation
	if c.Poller.Enabled && c.Poller.Interval <= 0 {
		errs = append(errs, "poller.interval must be positive")
	}
	if c.Poller.Debounce < 0 {
		errs = append(errs, "poller.debounce must not be negative")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetCacheTTL returns the registry cache TTL as a Duration.
func (c *Config) GetCacheTTL() time.Duration {
	return time.Duration(c.Registry.CacheTTL) * time.Second
}

// GetMoonrakerTimeout returns the upstream request timeout as a Duration.
func (c *Config) GetMoonrakerTimeout() time.Duration {
	return time.Duration(c.Moonraker.Timeout) * time.Second
}

// GetPollInterval returns the poller sweep interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Poller.Interval) * time.Second
}

// GetPollDebounce returns the poller push debounce as a Duration.
func (c *Config) GetPollDebounce() time.Duration {
	return time.Duration(c.Poller.Debounce) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
