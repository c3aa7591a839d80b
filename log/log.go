// Package log provides the logger used by rack packages. Output is
// configured with environment variables:
//
//	RACK_DEBUG=1        enables debug level
//	RACK_LOG_LEVEL=warn sets any logrus level, takes precedence
//	RACK_LOG_JSON=1     switches to JSON formatter
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Environment variables read by GetLogger.
const (
	DebugEnv = "RACK_DEBUG"
	LevelEnv = "RACK_LOG_LEVEL"
	JSONEnv  = "RACK_LOG_JSON"
)

// GetLogger returns a new logger configured from environment.
func GetLogger() *logrus.Logger {
	return New(os.Getenv)
}

// New returns a logger configured with getenv lookups. Invalid values
// are ignored.
func New(getenv func(string) string) *logrus.Logger {
	l := logrus.New()
	if flag(getenv(DebugEnv)) {
		l.SetLevel(logrus.DebugLevel)
	}
	if level, err := logrus.ParseLevel(getenv(LevelEnv)); err == nil {
		l.SetLevel(level)
	}
	if flag(getenv(JSONEnv)) {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

func flag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Discard returns logger that drops all entries. Used by tests and
// tools that render into the terminal themselves.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}
