// Package logger builds the zap loggers used by vistrack pipelines and the
// example programs
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a console development logger at
// debug level when debug is set.  Both stamp entries with an ISO8601
// timestamp field
func New(debug bool) (*zap.Logger, error) {

	cfg := zap.NewProductionConfig()

	if debug {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Must is like New but panics if the logger can not be built
func Must(debug bool) *zap.Logger {

	l, err := New(debug)

	if err != nil {
		panic("failed to build logger: " + err.Error())
	}

	return l
}
