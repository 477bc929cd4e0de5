// Package logger configures the application-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger instance. Call Init once at startup; packages
// that log before Init runs still get a usable default.
var Log = logrus.New()

// Init configures the logger from the environment.
// LOG_LEVEL selects the level (default "info"); LOG_FORMAT=json switches to
// JSON output for log collection.
func Init() {
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	Log.SetOutput(os.Stderr)
}

// SetOutput redirects log output. The terminal UI owns stdout while the
// game runs, so main points this at a file or io.Discard.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}

// WithComponent returns an entry tagged with the originating component.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
