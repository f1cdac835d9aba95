package hdcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/ravenlabs/hdkeys/chainparams"
	"github.com/ravenlabs/hdkeys/hdkey"
	"github.com/stretchr/testify/require"
)

// writeConfig writes an ini file into a fresh home directory and returns the
// directory.
func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	homeDir := t.TempDir()
	err := os.WriteFile(
		filepath.Join(homeDir, DefaultConfigFilename), []byte(contents),
		0600,
	)
	require.NoError(t, err)

	return homeDir
}

// TestLoadConfigDefaults checks the values used without a config file.
func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	homeDir := t.TempDir()
	cfg, err := LoadConfig([]string{"--homedir=" + homeDir})
	require.NoError(t, err)

	require.Equal(t, chainparams.BitcoinMainNet, cfg.ActiveNetwork())
	require.False(t, cfg.Legacy)
	require.Equal(t, uint32(hdkey.DefaultMaxRetries), cfg.MaxRetries)
	require.Equal(t, filepath.Join(homeDir, "logs"), cfg.LogDir)
	require.Equal(
		t, filepath.Join(homeDir, "logs", DefaultLogFilename),
		cfg.LogFile(),
	)
	require.Len(t, cfg.DeriveOptions(), 1)

	fileCfg := cfg.FileLoggerConfig()
	require.Equal(t, 3, fileCfg.MaxLogFiles)
	require.Equal(t, 10, fileCfg.MaxLogFileSize)
}

// TestLoadConfigPrecedence checks that command line options override the
// config file, which overrides the defaults.
func TestLoadConfigPrecedence(t *testing.T) {
	t.Parallel()

	homeDir := writeConfig(t, `
[Application Options]
network=ravencoin-testnet
legacy=true
debuglevel=debug
maxlogfiles=7
`)

	cfg, err := LoadConfig([]string{"--homedir=" + homeDir})
	require.NoError(t, err)
	require.Equal(t, chainparams.RavencoinTestNet, cfg.ActiveNetwork())
	require.True(t, cfg.Legacy)
	require.Equal(t, "debug", cfg.DebugLevel)
	require.Equal(t, 7, cfg.MaxLogFiles)
	require.Len(t, cfg.DeriveOptions(), 2)

	cfg, err = LoadConfig([]string{
		"--homedir=" + homeDir, "--network=litecoin",
		"--debuglevel=info,HDKY=trace",
	})
	require.NoError(t, err)
	require.Equal(t, chainparams.LitecoinMainNet, cfg.ActiveNetwork())
	require.Equal(t, "info,HDKY=trace", cfg.DebugLevel)
	require.True(t, cfg.Legacy)

	// An explicit config file wins over the one in the home directory.
	otherDir := writeConfig(t, "network=bitcoin-testnet3\n")
	cfg, err = LoadConfig([]string{
		"--homedir=" + homeDir, "--configfile=" +
			filepath.Join(otherDir, DefaultConfigFilename),
	})
	require.NoError(t, err)
	require.Equal(t, chainparams.BitcoinTestNet3, cfg.ActiveNetwork())
	require.False(t, cfg.Legacy)
}

// TestLoadConfigErrors checks that invalid settings are rejected.
func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		ini  string
	}{{
		name: "unknown network",
		args: []string{"--network=dogecoin"},
	}, {
		name: "bad debug level",
		args: []string{"--debuglevel=loud"},
	}, {
		name: "unknown subsystem",
		args: []string{"--debuglevel=info,NOPE=debug"},
	}, {
		name: "negative log files",
		args: []string{"--maxlogfiles=-1"},
	}, {
		name: "zero log file size",
		args: []string{"--maxlogfilesize=0"},
	}, {
		name: "unknown flag",
		args: []string{"--nope"},
	}, {
		// Printing the version is up to the tool, not the config.
		name: "version flag",
		args: []string{"--version"},
	}, {
		name: "malformed config file",
		ini:  "network\n",
	}, {
		name: "unknown option in config file",
		ini:  "nope=1\n",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			homeDir := writeConfig(t, tc.ini)
			args := append([]string{"--homedir=" + homeDir}, tc.args...)

			_, err := LoadConfig(args)
			require.Error(t, err)
		})
	}
}

// TestLoadConfigHelp makes sure the help flag is surfaced as a go-flags
// error instead of exiting.
func TestLoadConfigHelp(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig([]string{"--homedir=" + t.TempDir(), "-h"})

	var flagsErr *flags.Error
	require.ErrorAs(t, err, &flagsErr)
	require.Equal(t, flags.ErrHelp, flagsErr.Type)
}

// TestCleanAndExpandPath checks home directory and variable expansion.
func TestCleanAndExpandPath(t *testing.T) {
	t.Setenv("HDKEY_TEST_DIR", "/tmp/hdkey")

	require.Equal(t, "", CleanAndExpandPath(""))
	require.Equal(
		t, "/tmp/hdkey/logs", CleanAndExpandPath("$HDKEY_TEST_DIR/logs/"),
	)
	require.NotContains(t, CleanAndExpandPath("~/x"), "~")
}
