package simulator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/drone_dashboard/internal/telemetry"
)

const nmeaLog = `$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47
$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A
not a sentence
$GPGGA,123520,4807.138,N,01131.100,E,1,08,0.9,550.4,M,46.9,M,,*49
$GPRMC,123520,A,4807.138,N,01131.100,E,022.4,090.0,230394,003.1,W*61
$GPRMC,123521,V,4807.138,N,01131.100,E,000.0,000.0,230394,003.1,W*7A
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flight.nmea")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSimulator_MockSource_StaysInRange(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	src := NewMockSource(clock)

	s, ok := src.Sample()
	require.True(t, ok)
	require.InDelta(t, mockRadius, s.X, 1e-9)
	require.InDelta(t, 0, s.Y, 1e-9)
	require.InDelta(t, mockAltMid, s.Z, 1e-9)
	require.InDelta(t, 0, s.A, 1e-9)

	for range 120 {
		clock.Advance(time.Second)
		s, _ = src.Sample()
		require.GreaterOrEqual(t, s.X, telemetry.PositionMin)
		require.LessOrEqual(t, s.X, telemetry.PositionMax)
		require.GreaterOrEqual(t, s.Y, telemetry.PositionMin)
		require.LessOrEqual(t, s.Y, telemetry.PositionMax)
		require.GreaterOrEqual(t, s.Z, telemetry.AltitudeMin)
		require.LessOrEqual(t, s.Z, telemetry.AltitudeMax)
		require.GreaterOrEqual(t, s.A, 0.0)
		require.Less(t, s.A, 360.0)
	}
}

func TestSimulator_MockSource_QuarterLap(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	src := NewMockSource(clock)
	clock.Advance(mockLapPeriod / 4)

	s, _ := src.Sample()
	require.InDelta(t, 0, s.X, 1e-9)
	require.InDelta(t, mockRadius, s.Y, 1e-9)
	// Flying west at the top of the circle.
	require.InDelta(t, 270, s.A, 1e-9)
}

func TestSimulator_ReplaySource_Steps(t *testing.T) {
	t.Parallel()

	src, err := NewReplaySource(&ReplayConfig{
		Logger:   discardLogger(),
		Clock:    clockwork.NewFakeClock(),
		Path:     writeLog(t, nmeaLog),
		Interval: time.Second,
	})
	require.NoError(t, err)

	// The constructor already played the first fix: the origin.
	s, ok := src.Sample()
	require.True(t, ok)
	require.Zero(t, s.X)
	require.Zero(t, s.Y)
	require.InDelta(t, 84.4, s.A, 1e-9)

	src.Step()
	s, _ = src.Sample()
	require.InDelta(t, 123.72, s.X, 0.01)
	require.InDelta(t, 185.32, s.Y, 0.01)
	require.InDelta(t, 5.0, s.Z, 1e-6)

	// Void fix keeps the last position.
	src.Step()
	s2, ok := src.Sample()
	require.True(t, ok)
	require.Equal(t, s, s2)

	// Wraps around to the origin.
	src.Step()
	s, _ = src.Sample()
	require.InDelta(t, 0, s.X, 1e-9)
	require.InDelta(t, 0, s.Y, 1e-9)
}

func TestSimulator_ReplaySource_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewReplaySource(&ReplayConfig{Logger: discardLogger(), Clock: clockwork.NewFakeClock(), Interval: time.Second})
	require.Error(t, err)

	_, err = NewReplaySource(&ReplayConfig{
		Logger: discardLogger(), Clock: clockwork.NewFakeClock(), Interval: time.Second,
		Path: filepath.Join(t.TempDir(), "missing.nmea"),
	})
	require.Error(t, err)

	_, err = NewReplaySource(&ReplayConfig{
		Logger: discardLogger(), Clock: clockwork.NewFakeClock(), Interval: time.Second,
		Path: writeLog(t, ""),
	})
	require.Error(t, err)
}

func TestSimulator_ReplaySource_NoFixInFile(t *testing.T) {
	t.Parallel()

	src, err := NewReplaySource(&ReplayConfig{
		Logger: discardLogger(), Clock: clockwork.NewFakeClock(), Interval: time.Second,
		Path: writeLog(t, "hello\nworld\n"),
	})
	require.NoError(t, err)
	_, ok := src.Sample()
	require.False(t, ok)
}

func TestSimulator_ReplaySource_Run(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	src, err := NewReplaySource(&ReplayConfig{
		Logger: discardLogger(), Clock: clock, Interval: time.Second,
		Path: writeLog(t, nmeaLog),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		s, _ := src.Sample()
		return s.Y > 100
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestSimulator_SerialSource_Consume(t *testing.T) {
	t.Parallel()

	_, err := NewSerialSource(&SerialConfig{Logger: discardLogger(), BaudRate: 9600})
	require.Error(t, err)
	_, err = NewSerialSource(&SerialConfig{Logger: discardLogger(), PortName: "/dev/serial0"})
	require.Error(t, err)

	src, err := NewSerialSource(&SerialConfig{Logger: discardLogger(), PortName: "/dev/serial0", BaudRate: 9600})
	require.NoError(t, err)

	err = src.consume(strings.NewReader(nmeaLog))
	require.ErrorIs(t, err, io.EOF)

	// Last line was void, the previous position is kept.
	s, ok := src.Sample()
	require.True(t, ok)
	require.InDelta(t, 185.32, s.Y, 0.01)
}
