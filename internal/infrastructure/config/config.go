package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the presence bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	DMX     DMXConfig     `yaml:"dmx"`
	RNBO    RNBOConfig    `yaml:"rnbo"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Logging LoggingConfig `yaml:"logging"`
}

// SerialConfig contains settings for the Enttec DMX USB Pro serial port.
type SerialConfig struct {
	// Device is the serial device path (e.g., "/dev/ttyUSB0").
	// The Enttec enumerates as an FTDI virtual COM port.
	Device string `yaml:"device"`

	// BaudRate is nominal only — the USB Pro streams at USB speed and
	// ignores it, but the OS still requires a value to open the port.
	BaudRate int `yaml:"baud_rate"`

	// ReadTimeout is the blocking read timeout in seconds. A cycle with no
	// bytes within this window is treated as "no frame", not an error.
	ReadTimeout int `yaml:"read_timeout"`
}

// DMXConfig contains DMX decoding settings.
type DMXConfig struct {
	// PresenceChannel is the 1-indexed DMX channel carrying the presence
	// signal (0 = absent, nonzero = present).
	PresenceChannel int `yaml:"presence_channel"`
}

// RNBOConfig contains settings for reaching the RNBO runner.
type RNBOConfig struct {
	// OSCPort is the UDP port the runner listens on for OSC messages.
	OSCPort int `yaml:"osc_port"`

	// OSCQueryPort is the HTTP port of the runner's OSCQuery server.
	OSCQueryPort int `yaml:"oscquery_port"`

	// QueryTimeout bounds each OSCQuery HTTP request, in seconds.
	QueryTimeout int `yaml:"query_timeout"`

	// ParameterPath is the OSC address written every poll cycle.
	// Used as-is when discovery cannot locate a candidate path.
	ParameterPath string `yaml:"parameter_path"`

	// CandidatePaths are checked against the OSCQuery tree in order during
	// setup; the first path present in the tree replaces ParameterPath.
	CandidatePaths []string `yaml:"candidate_paths"`
}

// BridgeConfig contains poll-loop and discovery-retry settings.
type BridgeConfig struct {
	// PollIntervalMS is the sleep between poll cycles, in milliseconds.
	PollIntervalMS int `yaml:"poll_interval_ms"`

	Discovery DiscoveryConfig `yaml:"discovery"`
}

// DiscoveryConfig bounds the setup-phase discovery retry loop.
type DiscoveryConfig struct {
	// MaxRetries is the number of discovery attempts before setup fails.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the fixed delay between attempts, in seconds.
	RetryDelay int `yaml:"retry_delay"`
}

// MQTTConfig contains optional MQTT status-publishing settings.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	QoS     int              `yaml:"qos"`
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
// Environment variables follow the pattern: PRESENCE_BRIDGE_SECTION_KEY
// For example: PRESENCE_BRIDGE_SERIAL_DEVICE, PRESENCE_BRIDGE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// The defaults match a Raspberry Pi running the RNBO runner locally with the
// Enttec on the first USB serial port.
func defaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:      "/dev/ttyUSB0",
			BaudRate:    57600,
			ReadTimeout: 1,
		},
		DMX: DMXConfig{
			PresenceChannel: 1,
		},
		RNBO: RNBOConfig{
			OSCPort:       1234,
			OSCQueryPort:  5678,
			QueryTimeout:  2,
			ParameterPath: "/rnbo/inst/0/params/fadeTrig",
			CandidatePaths: []string{
				"/rnbo/inst/0/params/fadeTrig",
				"/rnbo/inst/1/params/fadeTrig",
			},
		},
		Bridge: BridgeConfig{
			PollIntervalMS: 50,
			Discovery: DiscoveryConfig{
				MaxRetries: 30,
				RetryDelay: 1,
			},
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "presence-bridge",
			},
			QoS: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PRESENCE_BRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Serial
	if v := os.Getenv("PRESENCE_BRIDGE_SERIAL_DEVICE"); v != "" {
		cfg.Serial.Device = v
	}

	// DMX
	if v := os.Getenv("PRESENCE_BRIDGE_DMX_CHANNEL"); v != "" {
		if ch, err := strconv.Atoi(v); err == nil {
			cfg.DMX.PresenceChannel = ch
		}
	}

	// RNBO
	if v := os.Getenv("PRESENCE_BRIDGE_RNBO_PARAMETER_PATH"); v != "" {
		cfg.RNBO.ParameterPath = v
	}

	// MQTT
	if v := os.Getenv("PRESENCE_BRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PRESENCE_BRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PRESENCE_BRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Logging
	if v := os.Getenv("PRESENCE_BRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	const (
		minChannel = 1
		maxChannel = 512
		minPort    = 1
		maxPort    = 65535
	)

	if c.Serial.Device == "" {
		errs = append(errs, "serial.device is required")
	}
	if c.Serial.ReadTimeout < 1 {
		errs = append(errs, "serial.read_timeout must be at least 1 second")
	}

	if c.DMX.PresenceChannel < minChannel || c.DMX.PresenceChannel > maxChannel {
		errs = append(errs, "dmx.presence_channel must be between 1 and 512")
	}

	if c.RNBO.OSCPort < minPort || c.RNBO.OSCPort > maxPort {
		errs = append(errs, "rnbo.osc_port must be between 1 and 65535")
	}
	if c.RNBO.OSCQueryPort < minPort || c.RNBO.OSCQueryPort > maxPort {
		errs = append(errs, "rnbo.oscquery_port must be between 1 and 65535")
	}
	if c.RNBO.QueryTimeout < 1 {
		errs = append(errs, "rnbo.query_timeout must be at least 1 second")
	}
	if !strings.HasPrefix(c.RNBO.ParameterPath, "/") {
		errs = append(errs, "rnbo.parameter_path must start with /")
	}
	for _, p := range c.RNBO.CandidatePaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Sprintf("rnbo.candidate_paths entry %q must start with /", p))
		}
	}

	if c.Bridge.PollIntervalMS < 1 {
		errs = append(errs, "bridge.poll_interval_ms must be at least 1")
	}
	if c.Bridge.Discovery.MaxRetries < 1 {
		errs = append(errs, "bridge.discovery.max_retries must be at least 1")
	}
	if c.Bridge.Discovery.RetryDelay < 0 {
		errs = append(errs, "bridge.discovery.retry_delay must not be negative")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Broker.Port < minPort || c.MQTT.Broker.Port > maxPort {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the serial read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeout) * time.Second
}

// GetQueryTimeout returns the OSCQuery HTTP timeout as a Duration.
func (c *Config) GetQueryTimeout() time.Duration {
	return time.Duration(c.RNBO.QueryTimeout) * time.Second
}

// GetPollInterval returns the poll-loop sleep as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Bridge.PollIntervalMS) * time.Millisecond
}

// GetRetryDelay returns the discovery retry delay as a Duration.
func (c *Config) GetRetryDelay() time.Duration {
	return time.Duration(c.Bridge.Discovery.RetryDelay) * time.Second
}
