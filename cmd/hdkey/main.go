package main

import (
	"fmt"
	"os"

	"github.com/ravenlabs/hdkeys/build"
	"github.com/ravenlabs/hdkeys/hdcfg"
	"github.com/urfave/cli"
)

const (
	// configKey and logKey are the app metadata entries holding the loaded
	// config and the log file writer.
	configKey = "config"
	logKey    = "logwriter"
)

var (
	// stringOptions, intOptions and boolOptions are the global flags that
	// are forwarded to the config parser when set.
	stringOptions = []string{
		"homedir", "configfile", "network", "logdir", "debuglevel",
	}
	intOptions  = []string{"maxretries", "maxlogfiles", "maxlogfilesize"}
	boolOptions = []string{"legacy", "nologfile", "compresslogs"}
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[hdkey] %v\n", err)
	os.Exit(1)
}

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// newApp creates the command line application.
func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "hdkey"
	app.Version = build.Version() + " commit=" + build.Commit
	app.Usage = "create, derive and inspect hierarchical deterministic keys"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:      "homedir",
			Usage:     "The base directory of the config file and logs.",
			TakesFile: true,
		},
		cli.StringFlag{
			Name:      "configfile, C",
			Usage:     "Path to the configuration file.",
			TakesFile: true,
		},
		cli.StringFlag{
			Name: "network, n",
			Usage: "The network new keys are created on and shared " +
				"version bytes are resolved to first, e.g. " +
				"ravencoin-mainnet (default: " +
				hdcfg.DefaultNetwork + ").",
		},
		cli.BoolFlag{
			Name: "legacy",
			Usage: "Derive hardened children without the leading " +
				"zero bytes of the private key.",
		},
		cli.UintFlag{
			Name: "maxretries",
			Usage: "Number of consecutive invalid child indexes " +
				"skipped before a derivation fails.",
		},
		cli.StringFlag{
			Name:      "logdir",
			Usage:     "Directory to log output.",
			TakesFile: true,
		},
		cli.BoolFlag{
			Name:  "nologfile",
			Usage: "Disable the log file, logs only go to stderr.",
		},
		cli.IntFlag{
			Name:  "maxlogfiles",
			Usage: "Maximum logfiles to keep (0 for no rotation).",
		},
		cli.IntFlag{
			Name:  "maxlogfilesize",
			Usage: "Maximum logfile size in MB.",
		},
		cli.BoolFlag{
			Name:  "compresslogs",
			Usage: "Gzip rotated log files.",
		},
		cli.StringFlag{
			Name: "debuglevel, d",
			Usage: "Logging level for all subsystems, or " +
				"<global-level>,<subsystem>=<level>,...",
		},
	}
	app.Commands = []cli.Command{
		masterCommand,
		genSeedCommand,
		deriveCommand,
		neuterCommand,
		inspectCommand,
		validateCommand,
		keyRingCommand,
		signMessageCommand,
		verifyMessageCommand,
	}
	app.ErrWriter = os.Stderr
	app.Metadata = make(map[string]interface{})
	app.Before = loadConfig
	app.After = closeLog

	return app
}

// configArgs turns the global flags that were set on the command line into
// arguments for the config parser, so the config file only fills in what the
// command line leaves out.
func configArgs(ctx *cli.Context) []string {
	var args []string
	for _, name := range stringOptions {
		if ctx.IsSet(name) {
			args = append(args, fmt.Sprintf("--%s=%s", name,
				ctx.String(name)))
		}
	}
	for _, name := range intOptions {
		if !ctx.IsSet(name) {
			continue
		}

		value := fmt.Sprint(ctx.Int(name))
		if name == "maxretries" {
			value = fmt.Sprint(ctx.Uint(name))
		}
		args = append(args, fmt.Sprintf("--%s=%s", name, value))
	}
	for _, name := range boolOptions {
		if ctx.Bool(name) {
			args = append(args, "--"+name)
		}
	}

	return args
}

// loadConfig loads the config and sets up logging before any command runs.
func loadConfig(ctx *cli.Context) error {
	cfg, err := hdcfg.LoadConfig(configArgs(ctx))
	if err != nil {
		return err
	}

	logRotator, err := setupLogging(cfg, ctx.App.ErrWriter)
	if err != nil {
		return err
	}

	ctx.App.Metadata[configKey] = cfg
	ctx.App.Metadata[logKey] = logRotator

	log.Debugf("Loaded config for network %v, log file %v",
		cfg.ActiveNetwork(), cfg.LogFile())

	return nil
}

// closeLog flushes and closes the log file.
func closeLog(ctx *cli.Context) error {
	closer, ok := ctx.App.Metadata[logKey].(interface{ Close() error })
	if !ok {
		return nil
	}

	return closer.Close()
}

// getConfig returns the config loaded before the command started.
func getConfig(ctx *cli.Context) *hdcfg.Config {
	cfg, ok := ctx.App.Metadata[configKey].(*hdcfg.Config)
	if !ok {
		defaults := hdcfg.DefaultConfig()
		return &defaults
	}

	return cfg
}
