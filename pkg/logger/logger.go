package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger.
// Environment can be "dev", "uat", or "prod". Output always includes stdout;
// extra paths (e.g. a log file) are appended.
func New(service, env, level string, extraOutputs ...string) (*zap.Logger, error) {
	var cfg zap.Config

	if env == "dev" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	// Level override
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.OutputPaths = append([]string{"stdout"}, extraOutputs...)
	cfg.ErrorOutputPaths = []string{"stderr"}

	log, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log = log.With(zap.String("service", service), zap.String("env", env))
	log.Info("logger initialized", zap.String("level", level))
	return log, nil
}

// Sync flushes any buffered logs (defer this in main()).
func Sync(log *zap.Logger) {
	if log != nil {
		_ = log.Sync()
	}
}
