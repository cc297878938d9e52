// Package log holds the logrus field names shared by every component and
// the logger constructor.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// FldEvent is the ID of the event a log entry is about
	FldEvent = "event"
	// FldRegistration is the ID of a registration
	FldRegistration = "registration"
	// FldEntry is the ID of a waitlist entry
	FldEntry = "entry"
	// FldStatus is a registration or waitlist status
	FldStatus = "status"
	// FldTemplate is a notification template ID
	FldTemplate = "template"
	// FldRecipient is the address a notification is sent to
	FldRecipient = "recipient"
	// FldAttempt is the delivery attempt number
	FldAttempt = "attempt"
	// FldDeadline is a confirmation deadline
	FldDeadline = "deadline"
	// FldTransport is the name of the log field for storing a transport name
	FldTransport = "transport"
	// FldComponent names the subsystem writing the entry
	FldComponent = "component"
	// FldVersion is the version number of the application
	FldVersion = "ver"
	// FldIP is the IP address used in the log entry
	FldIP = "ip"
	// FldRequest is the request ID assigned by the router
	FldRequest = "request"
	// FldDuration is the time an operation took
	FldDuration = "duration"
)

// New builds the root logger. level is a logrus level name; format is
// "json" or "text".
func New(level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Discard returns an entry that drops everything. Handy in tests.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
