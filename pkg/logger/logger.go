package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with clinic-specific helpers.
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance with JSON output at the given level.
func New(level string) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// Discard returns a logger that swallows all output, for tests.
func Discard() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return &Logger{Logger: log}
}

// WithComponent creates a new logger entry with a component name field.
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithActor creates a new logger entry carrying the acting user's identity.
func (l *Logger) WithActor(name, role string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"actor":      name,
		"actor_role": role,
	})
}

// Audit logs who did what to which record, with the outcome.
func (l *Logger) Audit(actor, action, resource string, success bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"audit":    true,
		"actor":    actor,
		"action":   action,
		"resource": resource,
		"success":  success,
		"details":  details,
	})

	if success {
		entry.Info("Audit event")
	} else {
		entry.Warn("Audit event failed")
	}
}
