package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger *zap.Logger

// InitLogger initializes the default logger. Log output goes to stderr so
// that command results (JSON or tables) own stdout.
func InitLogger() error {
	config := zap.NewProductionConfig()

	if os.Getenv("LOG_LEVEL") == "debug" {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.StacktraceKey = "stacktrace"

	var err error
	defaultLogger, err = config.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(defaultLogger)
	return nil
}

// Logger returns the default logger instance
func Logger() *zap.Logger {
	if defaultLogger == nil {
		// Fallback to basic logger if not initialized
		logger, err := zap.NewProduction()
		if err != nil {
			logger, err = zap.NewDevelopment()
			if err != nil {
				logger = zap.NewNop()
			}
		}
		defaultLogger = logger
	}
	return defaultLogger
}

// Sync flushes any buffered log entries
func Sync() error {
	if defaultLogger != nil {
		return defaultLogger.Sync()
	}
	return nil
}
