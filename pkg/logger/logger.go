// Package logger builds the process-wide zap logger.
package logger

import (
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DebugLevel = int(zapcore.DebugLevel)
	InfoLevel  = int(zapcore.InfoLevel)
	WarnLevel  = int(zapcore.WarnLevel)
	ErrorLevel = int(zapcore.ErrorLevel)
)

// New builds a production zap logger configured via LOG_LEVEL and
// LOG_TIME_FORMAT, returning the logger and a cleanup to flush it.
func New() (*zap.Logger, func(), error) {
	viper.SetDefault("LOG_LEVEL", InfoLevel)
	viper.SetDefault("LOG_TIME_FORMAT", time.RFC3339Nano)

	level := zapcore.Level(viper.GetInt("LOG_LEVEL"))
	timeFormat := viper.GetString("LOG_TIME_FORMAT")

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeFormat)

	log, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = log.Sync()
	}

	return log, cleanup, nil
}
