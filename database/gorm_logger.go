package database

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"
)

// zerologWriter feeds gorm's logger into zerolog.
type zerologWriter struct {
	logger zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...any) {
	w.logger.Warn().Msgf(format, args...)
}

func newGormLogger(l zerolog.Logger, slowThreshold time.Duration) logger.Interface {
	return logger.New(
		zerologWriter{l.With().Str("component", "gorm").Logger()},
		logger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
