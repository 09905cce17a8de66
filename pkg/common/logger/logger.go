package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is usable before Init so packages can log from tests without setup.
var Log = logrus.New()

func Init() {
	Configure(os.Stdout, os.Getenv("LOG_LEVEL"))
}

func Configure(out io.Writer, level string) {
	Log.SetOutput(out)
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	if level == "" {
		level = "info"
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	Log.SetLevel(logLevel)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

// ForService tags every entry with the emitting service name.
func ForService(name string) *logrus.Entry {
	return Log.WithField("service", name)
}
