package obs

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggerOnce sync.Once
	logger     *logrus.Logger
)

// Logger returns the shared structured logger used across the service.
func Logger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
		logger.SetLevel(logrus.InfoLevel)
	})
	return logger
}

// SetLevel adjusts verbosity from a textual level; unknown levels are ignored.
func SetLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		Logger().SetLevel(lvl)
	}
}

// LogRequest emits a structured log entry with common HTTP fields.
func LogRequest(entry map[string]any) {
	level := logrus.InfoLevel
	if status, ok := entry["status"].(int); ok && status >= 500 {
		level = logrus.ErrorLevel
	}
	Logger().WithFields(logrus.Fields(entry)).Log(level, "request_complete")
}
