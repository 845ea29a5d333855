// Package logging holds the verbosity levels used with logr.
package logging

// Verbosity levels passed to logr.Logger.V
const (
	DEFAULT = 2
	VERBOSE = 3
	DEBUG   = 4
	TRACE   = 5
)
