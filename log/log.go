// Package log provides loggers for stream networks.
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv enables debug level of loggers returned by GetLogger.
const DebugEnv = "STREAM_DEBUG"

var debug bool

// Logger is a structured logger used by networks.
type Logger = logrus.FieldLogger

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns a logger that drops every entry.
func Silent() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Node returns a logger entry with node fields.
func Node(l Logger, name, id string) Logger {
	return l.WithFields(logrus.Fields{
		"node": name,
		"id":   id,
	})
}
