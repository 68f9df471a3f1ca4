// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package reconcile

import "log/slog"

// Notifier is the side channel telling users whether an operation reached
// the remote store or only the local mirror. Mutations never reject in
// degraded mode; this is how callers learn the difference.
type Notifier interface {
	Success(msg string)
	Warning(msg string)
}

// LogNotifier reports notices through the structured log. UI layers replace
// it with their own toast-style implementation.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(msg string) { n.logger.Info(msg) }
func (n *LogNotifier) Warning(msg string) { n.logger.Warn(msg) }
