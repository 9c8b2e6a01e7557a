package logger

import (
	"os"

	"go.uber.org/zap"
)

var log *zap.Logger

// Init builds the process-wide logger. Development mode uses the console
// encoder; production emits JSON.
func Init() error {
	var err error
	if os.Getenv("ENV") == "production" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	return err
}

// L returns the process logger, falling back to a no-op logger when Init
// has not been called (e.g. in tests).
func L() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
