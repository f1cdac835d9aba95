package build

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/btcsuite/btclog"
)

// LogType is an indicating the type of logging specified by the build flag.
type LogType byte

const (
	// LogTypeNone indicates no logging.
	LogTypeNone LogType = iota

	// LogTypeStdOut all logging is written directly to the console.
	LogTypeStdOut

	// LogTypeDefault logs to both stderr and a given io.PipeWriter.
	LogTypeDefault
)

// String returns a human readable identifier for the logging type.
func (t LogType) String() string {
	switch t {
	case LogTypeNone:
		return "none"
	case LogTypeStdOut:
		return "stdout"
	case LogTypeDefault:
		return "default"
	default:
		return "unknown"
	}
}

// LogWriter is a stub type whose behavior can be changed using the build flags
// "stdlog" and "nolog". The default behavior is to write to both stderr and the
// RotatorPipe. Passing "stdlog" will cause it only to write to stderr, and
// "nolog" implements Write as a no-op. Logs go to stderr so they never mix
// with the output of the command line tools.
type LogWriter struct {
	// RotatorPipe is the write-end pipe for writing to the log rotator. It
	// is only consulted by the default build.
	RotatorPipe *io.PipeWriter
}

// NewSubLogger constructs a new subsystem log from the current LogWriter
// implementation. Library packages call it from their init functions with a
// nil generator, which leaves them disabled in production builds until the
// caller hands them a real logger through UseLogger.
func NewSubLogger(subsystem string,
	genSubLogger func(string) btclog.Logger) btclog.Logger {

	switch Deployment {

	// For production builds, generate a new subsystem logger from the
	// primary log backend. If no function is provided, logging will be
	// disabled.
	case Production:
		if genSubLogger != nil {
			return genSubLogger(subsystem)
		}

	// Development builds are used by unit tests, which want their output
	// on the console when built with the stdlog tag.
	case Development:
		switch LoggingType {
		case LogTypeDefault:
			if genSubLogger != nil {
				return genSubLogger(subsystem)
			}

		case LogTypeStdOut:
			backend := btclog.NewBackend(&LogWriter{})
			logger := backend.Logger(subsystem)

			level, _ := btclog.LevelFromString(LogLevel)
			logger.SetLevel(level)

			return logger
		}
	}

	// For any other configurations, we'll disable logging.
	return btclog.Disabled
}

// SubLoggers is a type that holds a map of subsystem loggers keyed by their
// subsystem name.
type SubLoggers map[string]btclog.Logger

// LeveledSubLogger provides the ability to retrieve the subsystem loggers of
// a logger and set their log levels individually or all at once.
type LeveledSubLogger interface {
	// SubLoggers returns the map of all registered subsystem loggers.
	SubLoggers() SubLoggers

	// SupportedSubsystems returns a sorted slice of the names of the
	// registered subsystems.
	SupportedSubsystems() []string

	// SetLogLevel assigns an individual subsystem logger a new log level.
	SetLogLevel(subsystemID string, logLevel string)

	// SetLogLevels assigns all subsystem loggers the same new log level.
	SetLogLevels(logLevel string)
}

// SubLoggerManager owns a single btclog backend and every subsystem logger
// created from it.
type SubLoggerManager struct {
	backend *btclog.Backend

	mu         sync.Mutex
	subLoggers SubLoggers
}

// A compile time check to ensure SubLoggerManager implements the
// LeveledSubLogger interface.
var _ LeveledSubLogger = (*SubLoggerManager)(nil)

// NewSubLoggerManager creates a manager whose loggers all write to w.
func NewSubLoggerManager(w io.Writer) *SubLoggerManager {
	return &SubLoggerManager{
		backend:    btclog.NewBackend(w),
		subLoggers: make(SubLoggers),
	}
}

// GenSubLogger creates a new logger for the given subsystem tag. It matches
// the generator signature expected by NewSubLogger.
func (m *SubLoggerManager) GenSubLogger(tag string) btclog.Logger {
	return m.backend.Logger(tag)
}

// RegisterSubLogger adds a subsystem logger under the given name and hands it
// to useLogger so the owning package starts using it.
func (m *SubLoggerManager) RegisterSubLogger(subsystem string,
	useLogger func(btclog.Logger)) {

	logger := NewSubLogger(subsystem, m.GenSubLogger)

	m.mu.Lock()
	m.subLoggers[subsystem] = logger
	m.mu.Unlock()

	if useLogger != nil {
		useLogger(logger)
	}
}

// SubLoggers returns a copy of the registered subsystem loggers.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (m *SubLoggerManager) SubLoggers() SubLoggers {
	m.mu.Lock()
	defer m.mu.Unlock()

	loggers := make(SubLoggers, len(m.subLoggers))
	for k, v := range m.subLoggers {
		loggers[k] = v
	}

	return loggers
}

// SupportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (m *SubLoggerManager) SupportedSubsystems() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	subsystems := make([]string, 0, len(m.subLoggers))
	for subsysID := range m.subLoggers {
		subsystems = append(subsystems, subsysID)
	}

	sort.Strings(subsystems)
	return subsystems
}

// SetLogLevel sets the logging level for the provided subsystem. Invalid
// subsystems are ignored.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (m *SubLoggerManager) SetLogLevel(subsystemID string, logLevel string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger, ok := m.subLoggers[subsystemID]
	if !ok {
		return
	}

	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (m *SubLoggerManager) SetLogLevels(logLevel string) {
	level, _ := btclog.LevelFromString(logLevel)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, logger := range m.subLoggers {
		logger.SetLevel(level)
	}
}

// ParseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly on the given logger. An appropriate error is returned
// if anything is invalid.
func ParseAndSetDebugLevels(level string, logger LeveledSubLogger) error {
	levels := strings.Split(level, ",")
	if len(levels) == 0 || level == "" {
		return fmt.Errorf("invalid log level: %v", level)
	}

	// If the first entry has no =, treat is as the log level for all
	// subsystems.
	globalLevel := levels[0]
	if !strings.Contains(globalLevel, "=") {
		if !validLogLevel(globalLevel) {
			return fmt.Errorf("the specified debug level [%v] is "+
				"invalid", globalLevel)
		}

		logger.SetLogLevels(globalLevel)

		levels = levels[1:]
	}

	subLoggers := logger.SubLoggers()
	for _, logLevelPair := range levels {
		subsysID, logLevel, found := strings.Cut(logLevelPair, "=")
		if !found || strings.Contains(logLevel, "=") {
			return fmt.Errorf("the specified debug level has an "+
				"invalid format [%v] -- use format "+
				"subsystem1=level1,subsystem2=level2",
				logLevelPair)
		}

		if _, exists := subLoggers[subsysID]; !exists {
			return fmt.Errorf("the specified subsystem [%v] is "+
				"invalid -- supported subsystems are %v",
				subsysID, logger.SupportedSubsystems())
		}

		if !validLogLevel(logLevel) {
			return fmt.Errorf("the specified debug level [%v] is "+
				"invalid", logLevel)
		}

		logger.SetLogLevel(subsysID, logLevel)
	}

	return nil
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical", "off":
		return true
	}

	return false
}
