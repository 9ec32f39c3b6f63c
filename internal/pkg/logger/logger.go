package logger

import (
	"fmt"

	"github.com/adiraj/gocab/internal/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger wraps zap with service-scoped defaults.
type ZapLogger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// NewZapLogger creates a logger from configuration. Format "console" is
// intended for local development; everything else gets JSON.
func NewZapLogger(cfg models.LoggerConfig, serviceName string) (*ZapLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.MessageKey = "message"
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	base, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if serviceName != "" {
		base = base.With(zap.String("service", serviceName))
	}

	return &ZapLogger{Logger: base, sugar: base.Sugar()}, nil
}

// Sugar returns the sugared logger.
func (l *ZapLogger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// WithError returns a logger with an error field attached.
func (l *ZapLogger) WithError(err error) *zap.Logger {
	return l.Logger.With(zap.Error(err))
}

// Close flushes any buffered log entries.
func (l *ZapLogger) Close() error {
	return l.Logger.Sync()
}
