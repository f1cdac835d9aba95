//go:build stdlog
// +build stdlog

package build

import "os"

// LoggingType is a log type that only writes to the console.
const LoggingType = LogTypeStdOut

// Write writes the provided byte slice to stderr, which keeps test logs apart
// from the JSON the command line tools print.
func (w *LogWriter) Write(b []byte) (int, error) {
	return os.Stderr.Write(b)
}
