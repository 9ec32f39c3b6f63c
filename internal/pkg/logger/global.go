package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu           sync.Mutex
	globalLogger *ZapLogger
)

// SetGlobalLogger installs the process-wide logger. Called once from main.
func SetGlobalLogger(l *ZapLogger) {
	mu.Lock()
	globalLogger = l
	mu.Unlock()
}

// get returns the installed logger, lazily falling back to a production
// default so early log calls never panic.
func get() *ZapLogger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		l, _ := zap.NewProduction()
		globalLogger = &ZapLogger{Logger: l, sugar: l.Sugar()}
	}
	return globalLogger
}

func Debug(msg string, fields ...Field) { get().Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { get().Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { get().Warn(msg, fields...) }
func Error(msg string, fields ...Field) { get().Error(msg, fields...) }

// Fatal logs and exits.
func Fatal(msg string, fields ...Field) { get().Fatal(msg, fields...) }
