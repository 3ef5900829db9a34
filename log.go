// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import "log/slog"

// SLogger is the structured logger used by this package.
//
// It is compatible with [*slog.Logger].
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// discardLogger is the default [SLogger]: logging is disabled unless
// the caller sets the Logger field.
var discardLogger SLogger = slog.New(slog.DiscardHandler)

func loggerOrDiscard(logger SLogger) SLogger {
	if logger == nil {
		return discardLogger
	}
	return logger
}
