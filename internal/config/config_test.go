package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drone_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfig_Load_DefaultsForMissingKeys(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "# only comments\n\n"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, time.Second, cfg.PingPeriod())
	require.Equal(t, 100*time.Millisecond, cfg.TelemetryPeriod())
	require.Equal(t, 200*time.Millisecond, cfg.DisplayPeriod())
	require.Equal(t, time.Second, cfg.ReplayPeriod())
	require.Empty(t, cfg.MQTTBroker)
}

func TestConfig_Load_OverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
# sim on the bench
SIM_BASE_URL=http://192.168.86.35:8000
PING_INTERVAL=500
TELEMETRY_INTERVAL=50
WEB_SERVER_PORT=9090
MQTT_BROKER=tcp://broker:1883
TOPIC_VIEW=bench/view
DISPLAY_I2C_BUS=1
SIM_SOURCE=nmea_file
SIM_NMEA_FILE=/var/log/flight.nmea
SIM_REPLAY_INTERVAL=250
GPS_BAUD_RATE=115200
`))
	require.NoError(t, err)
	require.Equal(t, "http://192.168.86.35:8000", cfg.SimBaseURL)
	require.Equal(t, 500*time.Millisecond, cfg.PingPeriod())
	require.Equal(t, 50*time.Millisecond, cfg.TelemetryPeriod())
	require.Equal(t, 9090, cfg.WebServerPort)
	require.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	require.Equal(t, "bench/view", cfg.TopicView)
	require.Equal(t, "1", cfg.DisplayI2CBus)
	require.Equal(t, SourceNMEAFile, cfg.SimSource)
	require.Equal(t, "/var/log/flight.nmea", cfg.SimNMEAFile)
	require.Equal(t, 250*time.Millisecond, cfg.ReplayPeriod())
	require.Equal(t, 115200, cfg.GPSBaudRate)
	require.Equal(t, "drone-dashboard", cfg.MQTTClientIDDashboard)
}

func TestConfig_Load_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestConfig_FromMap_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values map[string]string
		errMsg string
	}{
		{"unknown key", map[string]string{"IMU_LEFT_SPI_DEVICE": "/dev/spidev0.0"}, "unknown config key"},
		{"interval not a number", map[string]string{"PING_INTERVAL": "fast"}, "invalid PING_INTERVAL"},
		{"zero interval", map[string]string{"TELEMETRY_INTERVAL": "0"}, "TELEMETRY_INTERVAL must be a positive"},
		{"port out of range", map[string]string{"WEB_SERVER_PORT": "70000"}, "WEB_SERVER_PORT must be 1-65535"},
		{"bad source", map[string]string{"SIM_SOURCE": "lidar"}, "SIM_SOURCE must be one of"},
		{"relative base url", map[string]string{"SIM_BASE_URL": "localhost:8000"}, "not an absolute URL"},
		{"empty base url", map[string]string{"SIM_BASE_URL": ""}, "SIM_BASE_URL is required"},
		{"file source without file", map[string]string{"SIM_SOURCE": "nmea_file"}, "SIM_NMEA_FILE is required"},
		{"serial source without port", map[string]string{"SIM_SOURCE": "nmea_serial", "GPS_SERIAL_PORT": ""}, "GPS_SERIAL_PORT is required"},
		{"negative baud", map[string]string{"GPS_BAUD_RATE": "-1"}, "GPS_BAUD_RATE must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := FromMap(tt.values)
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestConfig_SampleFileLoads(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join("..", "..", "drone_config.txt"))
	require.NoError(t, err)
	require.Equal(t, SourceMock, cfg.SimSource)
	require.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
}
