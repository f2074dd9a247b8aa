package observers

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewDefaultLoggingObserver creates a logging observer with default settings (Info level,
// named "trafficlight")
func NewDefaultLoggingObserver(logger *zap.Logger) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewLoggingObserver(logger.Named("trafficlight"), zapcore.InfoLevel)
}
