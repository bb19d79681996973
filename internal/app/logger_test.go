package app

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name      string
		level     string
		format    string
		wantDebug bool
		want      string
	}{
		{name: "text debug", level: "debug", format: "text", wantDebug: true, want: "duration=1.5"},
		{name: "json info", level: "info", format: "json", want: `"duration":1.5`},
		{name: "unknown level", level: "loud", format: "text", want: "duration=1.5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(tc.level, tc.format, &buf)

			logger.Debug("hidden unless debug")
			logger.Info("timed", "duration", 1500*time.Millisecond)

			out := buf.String()
			require.Equal(t, tc.wantDebug, bytes.Contains(buf.Bytes(), []byte("hidden unless debug")))
			require.Contains(t, out, tc.want)
		})
	}
}
