package main

import (
	"io"

	"github.com/btcsuite/btclog"
	"github.com/ravenlabs/hdkeys/build"
	"github.com/ravenlabs/hdkeys/chainparams"
	"github.com/ravenlabs/hdkeys/hdcfg"
	"github.com/ravenlabs/hdkeys/hdkey"
	"github.com/ravenlabs/hdkeys/hdpath"
	"github.com/ravenlabs/hdkeys/keychain"
)

// Subsystem defines the logging code for the command line tool.
const Subsystem = "HCLI"

// log is the logger of the command line tool. It is replaced by setupLogging.
var log = btclog.Disabled

func init() {
	// Make the tool's own subsystem known to the debug level validation of
	// the config.
	hdcfg.Subsystems = append(hdcfg.Subsystems, Subsystem)
}

// setupLogging wires the loggers of all packages to console and, unless
// disabled, the rotating log file. The console is stderr so log lines never
// mix with the JSON printed on stdout. The returned writer must be closed on
// exit.
func setupLogging(cfg *hdcfg.Config,
	console io.Writer) (*build.RotatingLogWriter, error) {

	logRotator := build.NewRotatingLogWriter()

	w := console
	if !cfg.NoLogFile {
		err := logRotator.InitLogRotator(
			cfg.FileLoggerConfig(), cfg.LogFile(),
		)
		if err != nil {
			return nil, err
		}

		w = io.MultiWriter(console, logRotator)
	}

	logMgr := build.NewSubLoggerManager(w)
	logMgr.RegisterSubLogger(Subsystem, func(l btclog.Logger) {
		log = l
	})
	logMgr.RegisterSubLogger(chainparams.Subsystem, chainparams.UseLogger)
	logMgr.RegisterSubLogger(hdpath.Subsystem, hdpath.UseLogger)
	logMgr.RegisterSubLogger(hdkey.Subsystem, hdkey.UseLogger)
	logMgr.RegisterSubLogger(keychain.Subsystem, keychain.UseLogger)

	err := build.ParseAndSetDebugLevels(cfg.DebugLevel, logMgr)
	if err != nil {
		_ = logRotator.Close()
		return nil, err
	}

	return logRotator, nil
}
