// Package logging wraps logrus with the field set every component in this
// module logs against: component, session and request_id, mirroring the
// structured {method, path, status, duration} field set bolt's Logger
// middleware attaches to every request, just generalized past HTTP.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a thin façade over *logrus.Entry so callers import this
// package instead of logrus directly, keeping the field names consistent
// across frontend, proxy, worker and client.
type Logger struct {
	entry *logrus.Entry
}

var base = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	return l
}()

// New returns a Logger tagged with component, e.g. "frontend", "proxy".
func New(component string) *Logger {
	return &Logger{entry: base.WithField("component", component)}
}

// SetLevel adjusts the base logger's verbosity; "debug", "info", "warn", "error".
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	base.SetLevel(lvl)
	return nil
}

// WithSession returns a derived Logger carrying a client/session identity.
func (l *Logger) WithSession(session string) *Logger {
	return &Logger{entry: l.entry.WithField("session", session)}
}

// WithRequest returns a derived Logger carrying a request's 64-bit info key.
func (l *Logger) WithRequest(requestKey uint64) *Logger {
	return &Logger{entry: l.entry.WithField("request_id", requestKey)}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// WithError attaches err as the entry's "error" field for the next log call.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}
