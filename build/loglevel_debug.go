//go:build debuglog
// +build debuglog

package build

// LogLevel specifies a debug log level for unit tests built with the
// debuglog tag.
const LogLevel = "debug"
