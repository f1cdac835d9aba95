//go:build !debuglog
// +build !debuglog

package build

// LogLevel specifies the level at which stdout loggers created by
// NewSubLogger start out.
const LogLevel = "info"
