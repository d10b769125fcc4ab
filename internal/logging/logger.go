package logging

import (
	"os"

	"github.com/fieldtrace/evidence-cli/internal/config"

	"github.com/sirupsen/logrus"
)

// New creates a new structured logger
func New(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warn("Invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Set output format
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "msg",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		})
	}

	logger.SetOutput(os.Stderr)

	// Add default fields
	logger = logger.WithFields(logrus.Fields{
		"service":     "evidence-cli",
		"version":     getVersion(),
		"environment": cfg.Environment,
	}).Logger

	return logger
}

// getVersion returns the application version
func getVersion() string {
	if version := os.Getenv("APP_VERSION"); version != "" {
		return version
	}
	return "dev"
}

// WithEndpoint adds the API endpoint to logger context
func WithEndpoint(logger *logrus.Logger, endpoint string) *logrus.Entry {
	return logger.WithField("endpoint", endpoint)
}

// WithUsername adds the acting user to logger context
func WithUsername(logger *logrus.Logger, username string) *logrus.Entry {
	return logger.WithField("username", username)
}
