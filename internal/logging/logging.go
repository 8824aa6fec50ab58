// Package logging provides the logrus plumbing shared by every component.
//
// Components take a *logrus.Entry at construction time, scope it once with
// WithField("component", ...) and never touch the global logger. A nil entry
// means "don't log" and is replaced by Discard. Global configuration (level,
// format, destination) belongs only to the CLI.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Discard returns an entry whose output goes nowhere.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

// Default returns e if non-nil, otherwise a discard entry.
//
//	func NewComponent(log *logrus.Entry) *Component {
//	    log = logging.Default(log)
//	    return &Component{log: log.WithField("component", "name")}
//	}
func Default(e *logrus.Entry) *logrus.Entry {
	if e != nil {
		return e
	}
	return Discard()
}

// New builds a root entry writing to w at the given level ("debug", "info",
// ...). With json set, records are emitted as JSON objects.
func New(w io.Writer, level string, json bool) (*logrus.Entry, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return logrus.NewEntry(l), nil
}
