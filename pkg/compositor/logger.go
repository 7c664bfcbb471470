package compositor

import (
	"log/slog"

	"github.com/xob0t/namecard/internal/logger"
)

// SetLogger installs the logger used by the compositor, typeset and template
// packages. Passing nil silences them again. Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	logger.Set(l)
}

// Logger returns the logger currently installed with SetLogger.
func Logger() *slog.Logger {
	return logger.Get()
}
