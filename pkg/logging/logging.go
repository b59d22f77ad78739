package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Components derive entries from it with For.
var Log = logrus.New()

// Setup configures the root logger from a level name and a format
// ("text" or "json").
func Setup(level, format string, out io.Writer) error {
	if out == nil {
		out = os.Stderr
	}
	Log.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return err
	}
	Log.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{})
	default:
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		Log.WithField("format", format).Warn("unknown log format, using text")
	}
	return nil
}

// For returns a logger scoped to a component.
func For(component string) *logrus.Entry {
	return Log.WithField("component", component)
}
