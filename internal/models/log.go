package models

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry is the retained form of a logrus entry, kept in the in-memory ring
// buffer so the daemon and CLI can surface recent engine activity.
type LogEntry struct {
	Data    logrus.Fields `json:"data,omitempty"`
	Time    time.Time     `json:"time"`
	Level   logrus.Level  `json:"level,omitempty"`
	Message string        `json:"message,omitempty"`
}

func NewLogEntry(entry *logrus.Entry) *LogEntry {
	return &LogEntry{
		Data:    entry.Data,
		Time:    entry.Time,
		Level:   entry.Level,
		Message: entry.Message,
	}
}
