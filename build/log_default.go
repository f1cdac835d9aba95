//go:build !stdlog && !nolog
// +build !stdlog,!nolog

package build

import "os"

// LoggingType is a log type that writes to both stderr and the log rotator, if
// present.
const LoggingType = LogTypeDefault

// Write writes the byte slice to stderr and the log rotator, if present.
// Stdout is left to the output of the command line tools.
func (w *LogWriter) Write(b []byte) (int, error) {
	_, _ = os.Stderr.Write(b)
	if w.RotatorPipe != nil {
		_, _ = w.RotatorPipe.Write(b)
	}

	return len(b), nil
}
