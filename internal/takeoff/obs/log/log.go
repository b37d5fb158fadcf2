// Package log provides the structured logger shared by every package in the
// extraction pipeline. It wraps zap the way the teacher's backend services
// do: one process-wide base logger, per-component children via Named, and
// field-based call sites rather than printf-style messages.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base *zap.Logger
)

func init() {
	base = mustBuild("info")
}

func mustBuild(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	_ = lvl.UnmarshalText([]byte(level))

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a Nop logger rather than panicking the whole CLI
		// over a logging misconfiguration.
		return zap.NewNop()
	}
	return l
}

// Configure rebuilds the base logger at the requested level ("debug",
// "info", "warn", "error"). Safe to call once during CLI startup.
func Configure(level string) {
	mu.Lock()
	defer mu.Unlock()
	base = mustBuild(level)
}

// Named returns a child logger scoped to one component, e.g. "orchestrator"
// or "agent.runner". Mirrors how the teacher's gateway middleware scopes
// loggers per subsystem.
func Named(component string) *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(component).Sugar()
}

// Sync flushes any buffered log entries; call from main before exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
