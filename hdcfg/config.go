package hdcfg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/ravenlabs/hdkeys/build"
	"github.com/ravenlabs/hdkeys/chainparams"
	"github.com/ravenlabs/hdkeys/hdkey"
	"github.com/ravenlabs/hdkeys/hdpath"
	"github.com/ravenlabs/hdkeys/keychain"
)

const (
	// DefaultConfigFilename is the default configuration file name that is
	// loaded from the home directory.
	DefaultConfigFilename = "hdkey.conf"

	// DefaultLogFilename is the name of the log file within the log
	// directory.
	DefaultLogFilename = "hdkey.log"

	// DefaultNetwork is the network keys are created on when none is
	// configured.
	DefaultNetwork = "bitcoin-mainnet"

	defaultLogDirname = "logs"
	defaultLogLevel   = "info"
)

var (
	// DefaultHomeDir is the default directory of the configuration file
	// and the logs.
	DefaultHomeDir = btcutil.AppDataDir("hdkey", false)

	// DefaultConfigFile is the default full path of the configuration
	// file.
	DefaultConfigFile = filepath.Join(DefaultHomeDir, DefaultConfigFilename)

	defaultLogDir = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

// Subsystems lists the logging subsystems of the library packages, in the
// order they are registered by the command line tool.
var Subsystems = []string{
	chainparams.Subsystem,
	hdpath.Subsystem,
	hdkey.Subsystem,
	keychain.Subsystem,
}

// Config holds the options shared by the tools built on this module.
//
//nolint:ll
type Config struct {
	HomeDir    string `long:"homedir" description:"The base directory that contains the configuration file and logs"`
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`

	Network    string `long:"network" description:"The network new keys are created on and shared version bytes are resolved to first, e.g. ravencoin-mainnet"`
	Legacy     bool   `long:"legacy" description:"Serialize private keys without leading zero bytes when deriving hardened children, to recover keys from wallets that did so"`
	MaxRetries uint32 `long:"maxretries" description:"Number of consecutive invalid child indexes skipped before a derivation fails"`

	LogDir         string `long:"logdir" description:"Directory to log output."`
	NoLogFile      bool   `long:"nologfile" description:"Disable the log file, logs only go to stderr"`
	MaxLogFiles    int    `long:"maxlogfiles" description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize int    `long:"maxlogfilesize" description:"Maximum logfile size in MB"`
	CompressLogs   bool   `long:"compresslogs" description:"Gzip rotated log files"`

	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <global-level>,<subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`

	// network is the resolved Network option.
	network *chainparams.Network
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		HomeDir:        DefaultHomeDir,
		ConfigFile:     DefaultConfigFile,
		Network:        DefaultNetwork,
		MaxRetries:     hdkey.DefaultMaxRetries,
		LogDir:         defaultLogDir,
		MaxLogFiles:    build.DefaultMaxLogFiles,
		MaxLogFileSize: build.DefaultMaxLogFileSize,
		DebugLevel:     defaultLogLevel,
	}
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// A missing configuration file is not an error.
func LoadConfig(args []string) (*Config, error) {
	// Pre-parse the command line options to pick up an alternative config
	// file.
	preCfg := DefaultConfig()
	if _, err := newParser(&preCfg).ParseArgs(args); err != nil {
		return nil, err
	}

	// If the config file path has not been modified by the user, then
	// we'll use the default config file path. However, if the user has
	// modified their home directory, then we should assume they intend to
	// use the config file within it.
	configFileDir := CleanAndExpandPath(preCfg.HomeDir)
	configFilePath := CleanAndExpandPath(preCfg.ConfigFile)
	if configFileDir != DefaultHomeDir &&
		configFilePath == DefaultConfigFile {

		configFilePath = filepath.Join(
			configFileDir, DefaultConfigFilename,
		)
	}

	// Next, load any additional configuration options from the file.
	cfg := preCfg
	parser := newParser(&cfg)
	err := flags.NewIniParser(parser).ParseFile(configFilePath)
	if err != nil {
		// If it's a parsing related error, then we'll return
		// immediately, otherwise we can proceed as possibly the config
		// file doesn't exist which is OK.
		var iniErr *flags.IniError
		if errors.As(err, &iniErr) {
			return nil, err
		}
	}

	// Finally, parse the remaining command line options again to ensure
	// they take precedence.
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	// The log directory follows a custom home directory unless it was set
	// explicitly.
	if configFileDir != DefaultHomeDir && cfg.LogDir == defaultLogDir {
		cfg.LogDir = filepath.Join(configFileDir, defaultLogDirname)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// newParser returns a parser that leaves printing errors and help to the
// caller.
func newParser(cfg *Config) *flags.Parser {
	return flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
}

// Validate checks the given configuration to be sane, normalizes all file
// system paths and resolves the network.
func (c *Config) Validate() error {
	c.HomeDir = CleanAndExpandPath(c.HomeDir)
	c.ConfigFile = CleanAndExpandPath(c.ConfigFile)
	c.LogDir = CleanAndExpandPath(c.LogDir)

	net, err := chainparams.ByName(c.Network)
	if err != nil {
		return fmt.Errorf("invalid network %q: %w", c.Network, err)
	}
	c.network = net

	if c.MaxLogFiles < 0 {
		return fmt.Errorf("maxlogfiles must not be negative, got %d",
			c.MaxLogFiles)
	}
	if c.MaxLogFileSize <= 0 {
		return fmt.Errorf("maxlogfilesize must be positive, got %d",
			c.MaxLogFileSize)
	}

	// Parse the debug level against a throwaway set of loggers so a bad
	// level is reported before anything is logged.
	logMgr := build.NewSubLoggerManager(io.Discard)
	for _, subsystem := range Subsystems {
		logMgr.RegisterSubLogger(subsystem, nil)
	}
	if err := build.ParseAndSetDebugLevels(c.DebugLevel, logMgr); err != nil {
		return err
	}

	return nil
}

// ActiveNetwork returns the network resolved by Validate.
func (c *Config) ActiveNetwork() *chainparams.Network {
	if c.network == nil {
		return chainparams.BitcoinMainNet
	}

	return c.network
}

// DeriveOptions returns the derivation options selected by the config.
func (c *Config) DeriveOptions() []hdkey.DeriveOption {
	opts := []hdkey.DeriveOption{hdkey.WithMaxRetries(c.MaxRetries)}
	if c.Legacy {
		opts = append(opts, hdkey.WithLegacyDerivation())
	}

	return opts
}

// LogFile returns the full path of the log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir, DefaultLogFilename)
}

// FileLoggerConfig returns the rotation settings of the log file.
func (c *Config) FileLoggerConfig() *build.FileLoggerConfig {
	return &build.FileLoggerConfig{
		MaxLogFiles:    c.MaxLogFiles,
		MaxLogFileSize: c.MaxLogFileSize,
		Compress:       c.CompressLogs,
	}
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
