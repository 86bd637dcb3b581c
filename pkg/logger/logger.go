package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

type Config struct {
	Level  string
	Format string
}

// Logger is a named sugared logger.
type Logger struct {
	*zap.SugaredLogger
}

var (
	mu   sync.RWMutex
	base = mustBuild(Config{Level: "info", Format: "json"})
)

// Init replaces the process-wide base logger.
func Init(cfg Config) error {
	l, err := build(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	base = l
	return nil
}

func build(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build(zap.AddCallerSkip(1))
}

func mustBuild(cfg Config) *zap.Logger {
	l, err := build(cfg)
	if err != nil {
		panic(err)
	}
	return l
}

func Base() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func MustNamed(name string) *Logger {
	return &Logger{SugaredLogger: Base().Named(name).Sugar()}
}

func (l *Logger) Unwrap() *zap.SugaredLogger {
	return l.SugaredLogger
}

func (l *Logger) Reflect(key string, value any) zap.Field {
	return zap.Reflect(key, value)
}

// Sync flushes the base logger, ignoring errors from non-syncable sinks.
func Sync() {
	_ = Base().Sync()
}
