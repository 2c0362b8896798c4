// Package log is the application wide logger.
// Call Init once at startup before any other function in this package.
package log

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

// Init configures the global logger. Level is taken from the LOG_LEVEL
// environment variable and defaults to info.
func Init() {
	level := zapcore.InfoLevel
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		if parsed, err := zapcore.ParseLevel(strings.ToLower(l)); err == nil {
			level = parsed
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %s", err))
	}
	logger = l.Sugar()
}

func get() *zap.SugaredLogger {
	if logger == nil {
		Init()
	}
	return logger
}

func Debug(format string, args ...any) {
	get().Debugf(format, args...)
}

func Info(format string, args ...any) {
	get().Infof(format, args...)
}

func Warn(format string, args ...any) {
	get().Warnf(format, args...)
}

func Error(format string, args ...any) {
	get().Errorf(format, args...)
}

func Debugf(ctx context.Context, format string, args ...any) {
	get().Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...any) {
	get().Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	get().Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	get().Errorf(format, args...)
}
