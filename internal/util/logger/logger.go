// Package logger wraps a process-wide zap SugaredLogger. Handlers and
// services log through the package-level helpers; tests get a no-op-ish
// console logger by default.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global *zap.SugaredLogger
)

// Config selects level and encoding for the global logger.
type Config struct {
	Level    string // "debug", "info", "warn", "error"
	Encoding string // "json" or "console"
}

// Init builds the global logger from cfg. Safe to call more than once; the
// last call wins.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	global = build(cfg)
}

func build(cfg Config) *zap.SugaredLogger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.LevelKey = "level"
	encoderCfg.CallerKey = "caller"
	encoderCfg.MessageKey = "msg"
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if cfg.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Get returns the global logger, initializing a default one if needed.
func Get() *zap.SugaredLogger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(Config{})
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync flushes buffered entries.
func Sync() {
	if l := Get(); l != nil {
		_ = l.Sync()
	}
}

func Debugf(msg string, args ...any) { Get().Debugf(msg, args...) }
func Infof(msg string, args ...any)  { Get().Infof(msg, args...) }
func Warnf(msg string, args ...any)  { Get().Warnf(msg, args...) }
func Errorf(msg string, args ...any) { Get().Errorf(msg, args...) }
func Fatalf(msg string, args ...any) { Get().Fatalf(msg, args...) }
