// Package obs holds the one piece of ambient logging setup shared by every
// logging subsystem: each of h3, certificate, and jsonpath accepts its own
// *zap.Logger parameter (wire takes none), but all of them fall back to the
// same no-op logger
// and name their child logger the same way, so that lookup lives here once.
package obs

import "go.uber.org/zap"

// Logger returns log, or a no-op logger if log is nil.
func Logger(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// Named returns log (or a no-op logger if nil) with name appended to its
// logger name, matching how each subsystem tags its own log lines.
func Named(log *zap.Logger, name string) *zap.Logger {
	return Logger(log).Named(name)
}
