// Package observers provides observers for monitoring traffic light phase changes
package observers

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/anggasct/trafficlight"
)

// LoggingObserver logs traffic light events through a zap logger
type LoggingObserver struct {
	logger *zap.Logger
	level  zapcore.Level
	mutex  sync.RWMutex
}

// NewLoggingObserver creates a logging observer that writes phase changes at level.
// Lifecycle events are written at Info and errors at Error regardless of level.
func NewLoggingObserver(logger *zap.Logger, level zapcore.Level) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingObserver{
		logger: logger,
		level:  level,
	}
}

// SetLevel sets the level used for phase changes
func (o *LoggingObserver) SetLevel(level zapcore.Level) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.level = level
}

// Level returns the level used for phase changes
func (o *LoggingObserver) Level() zapcore.Level {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.level
}

// OnPhaseChange logs the toggle
func (o *LoggingObserver) OnPhaseChange(event trafficlight.PhaseEvent) {
	if ce := o.logger.Check(o.Level(), "phase change"); ce != nil {
		ce.Write(
			zap.String("light", event.LightID),
			zap.String("event", event.ID),
			zap.Stringer("from", event.Previous),
			zap.Stringer("to", event.Current),
			zap.Uint64("cycle", event.Cycle),
			zap.Duration("elapsed", event.Elapsed),
			zap.Duration("cycle_duration", event.CycleDuration),
		)
	}
}

// OnStarted logs the start of the cycle goroutine
func (o *LoggingObserver) OnStarted(lightID string) {
	o.logger.Info("light started", zap.String("light", lightID))
}

// OnStopped logs the end of the cycle goroutine
func (o *LoggingObserver) OnStopped(lightID string) {
	o.logger.Info("light stopped", zap.String("light", lightID))
}

// OnError logs errors
func (o *LoggingObserver) OnError(err error) {
	o.logger.Error("observer error", zap.Error(err))
}
