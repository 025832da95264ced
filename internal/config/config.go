package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Simulator position sources.
const (
	SourceMock       = "mock"
	SourceNMEAFile   = "nmea_file"
	SourceNMEASerial = "nmea_serial"
)

// Config holds all application configuration values.
type Config struct {
	// Simulation endpoint polled by the dashboard
	SimBaseURL        string
	PingInterval      int // milliseconds
	TelemetryInterval int // milliseconds

	// Web Server
	WebServerPort int

	// MQTT (empty broker disables the view publisher)
	MQTTBroker            string
	MQTTClientIDDashboard string
	MQTTClientIDConsole   string
	MQTTClientIDDisplay   string

	// Topics
	TopicView string

	// Display
	DisplayI2CBus         string // "" opens the first bus
	DisplayUpdateInterval int    // milliseconds

	// Simulator
	SimPort           int
	SimSource         string // "mock", "nmea_file" or "nmea_serial"
	SimNMEAFile       string
	SimReplayInterval int // milliseconds

	// GPS
	GPSSerialPort string
	GPSBaudRate   int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex, write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	return &Config{
		SimBaseURL:            "http://localhost:8000",
		PingInterval:          1000,
		TelemetryInterval:     100,
		WebServerPort:         8080,
		MQTTClientIDDashboard: "drone-dashboard",
		MQTTClientIDConsole:   "drone-console",
		MQTTClientIDDisplay:   "drone-display",
		TopicView:             "drone/dashboard/view",
		DisplayUpdateInterval: 200,
		SimPort:               8000,
		SimSource:             SourceMock,
		SimReplayInterval:     1000,
		GPSSerialPort:         "/dev/serial0",
		GPSBaudRate:           9600,
	}
}

// Load reads a KEY=VALUE configuration file ('#' starts a comment) and
// returns the defaults overridden by its values.
func Load(configPath string) (*Config, error) {
	values, err := godotenv.Read(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return FromMap(values)
}

// FromMap applies values over the defaults and validates the result.
func FromMap(values map[string]string) (*Config, error) {
	cfg := Default()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := cfg.setValue(key, values[key]); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Simulation endpoint
	case "SIM_BASE_URL":
		c.SimBaseURL = value
	case "PING_INTERVAL":
		return setMillis(&c.PingInterval, key, value)
	case "TELEMETRY_INTERVAL":
		return setMillis(&c.TelemetryInterval, key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		return setPort(&c.WebServerPort, key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DASHBOARD":
		c.MQTTClientIDDashboard = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_VIEW":
		c.TopicView = value

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		return setMillis(&c.DisplayUpdateInterval, key, value)

	// Simulator
	case "SIM_PORT":
		return setPort(&c.SimPort, key, value)
	case "SIM_SOURCE":
		switch value {
		case SourceMock, SourceNMEAFile, SourceNMEASerial:
			c.SimSource = value
		default:
			return fmt.Errorf("SIM_SOURCE must be one of %s, %s, %s, got %q", SourceMock, SourceNMEAFile, SourceNMEASerial, value)
		}
	case "SIM_NMEA_FILE":
		c.SimNMEAFile = value
	case "SIM_REPLAY_INTERVAL":
		return setMillis(&c.SimReplayInterval, key, value)

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", rate)
		}
		c.GPSBaudRate = rate

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setMillis(dst *int, key, value string) error {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if ms <= 0 {
		return fmt.Errorf("%s must be a positive number of milliseconds, got %d", key, ms)
	}
	*dst = ms
	return nil
}

func setPort(dst *int, key, value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", key, port)
	}
	*dst = port
	return nil
}

// validate checks the fields that depend on each other.
func (c *Config) validate() error {
	if c.SimBaseURL == "" {
		return fmt.Errorf("SIM_BASE_URL is required")
	}
	if u, err := url.Parse(c.SimBaseURL); err != nil || u.Host == "" {
		return fmt.Errorf("SIM_BASE_URL %q is not an absolute URL", c.SimBaseURL)
	}
	if c.TopicView == "" {
		return fmt.Errorf("TOPIC_VIEW is required")
	}
	if c.SimSource == SourceNMEAFile && c.SimNMEAFile == "" {
		return fmt.Errorf("SIM_NMEA_FILE is required when SIM_SOURCE=%s", SourceNMEAFile)
	}
	if c.SimSource == SourceNMEASerial && c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required when SIM_SOURCE=%s", SourceNMEASerial)
	}
	return nil
}

func (c *Config) PingPeriod() time.Duration {
	return time.Duration(c.PingInterval) * time.Millisecond
}

func (c *Config) TelemetryPeriod() time.Duration {
	return time.Duration(c.TelemetryInterval) * time.Millisecond
}

func (c *Config) DisplayPeriod() time.Duration {
	return time.Duration(c.DisplayUpdateInterval) * time.Millisecond
}

func (c *Config) ReplayPeriod() time.Duration {
	return time.Duration(c.SimReplayInterval) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads anything; later calls return its error.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
