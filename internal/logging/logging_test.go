package logging

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogging_FormatRFC3339Millis(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 4, 5, 6, 7, 891_000_000, time.FixedZone("X", 3600))
	require.Equal(t, "2026-03-04T04:06:07.891Z", FormatRFC3339Millis(ts))
}

func TestLogging_DebugOnlyWhenVerbose(t *testing.T) {
	t.Parallel()

	var quiet, loud bytes.Buffer
	NewWithWriter(&quiet, false).Debug("hidden")
	NewWithWriter(&loud, true).Debug("shown")

	require.Empty(t, quiet.String())
	require.Contains(t, loud.String(), "shown")
}

func TestLogging_DropsEmptyStringAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, false).Info("msg", "empty", "", "kept", "value")

	require.NotContains(t, buf.String(), "empty=")
	require.Contains(t, buf.String(), "kept=")
}
