package build

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"
)

// TestParseAndSetDebugLevels checks the global and per-subsystem forms of
// the debug level string.
func TestParseAndSetDebugLevels(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		level     string
		expErr    bool
		expLevels map[string]btclog.Level
	}{{
		name:  "global",
		level: "debug",
		expLevels: map[string]btclog.Level{
			"AAAA": btclog.LevelDebug,
			"BBBB": btclog.LevelDebug,
		},
	}, {
		name:  "global then subsystem",
		level: "warn,BBBB=trace",
		expLevels: map[string]btclog.Level{
			"AAAA": btclog.LevelWarn,
			"BBBB": btclog.LevelTrace,
		},
	}, {
		name:  "subsystem only",
		level: "AAAA=error",
		expLevels: map[string]btclog.Level{
			"AAAA": btclog.LevelError,
			"BBBB": btclog.LevelInfo,
		},
	}, {
		name:   "empty",
		level:  "",
		expErr: true,
	}, {
		name:   "bad global",
		level:  "loud",
		expErr: true,
	}, {
		name:   "unknown subsystem",
		level:  "info,CCCC=debug",
		expErr: true,
	}, {
		name:   "bad pair",
		level:  "info,AAAA=debug=trace",
		expErr: true,
	}, {
		name:   "bad subsystem level",
		level:  "AAAA=loud",
		expErr: true,
	}}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			manager := NewSubLoggerManager(&buf)
			manager.RegisterSubLogger("AAAA", nil)
			manager.RegisterSubLogger("BBBB", nil)
			manager.SetLogLevels("info")

			err := ParseAndSetDebugLevels(tc.level, manager)
			if tc.expErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			for subsystem, logger := range manager.SubLoggers() {
				require.Equal(
					t, tc.expLevels[subsystem],
					logger.Level(), subsystem,
				)
			}
		})
	}
}

// TestSupportedSubsystems makes sure the subsystem list is sorted.
func TestSupportedSubsystems(t *testing.T) {
	t.Parallel()

	manager := NewSubLoggerManager(&bytes.Buffer{})
	for _, subsystem := range []string{"ZZZZ", "HDKY", "CHPR"} {
		manager.RegisterSubLogger(subsystem, nil)
	}

	require.Equal(
		t, []string{"CHPR", "HDKY", "ZZZZ"},
		manager.SupportedSubsystems(),
	)
}
