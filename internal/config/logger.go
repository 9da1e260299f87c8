package config

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notewind/syncagent/internal/models"
)

type syncLogger struct {
	// Ring buffer for storing events
	sessionUID  uuid.UUID
	eventBuffer []*models.LogEntry
	maxSize     int
	currentPos  int
	isFull      bool
	mu          sync.RWMutex
}

func NewSyncLogger() *syncLogger {
	return &syncLogger{
		sessionUID:  uuid.New(),
		eventBuffer: make([]*models.LogEntry, 1000),
		maxSize:     1000,
		currentPos:  0,
		isFull:      false,
	}
}

func (s *syncLogger) Fire(entry *logrus.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Add to ring buffer
	s.eventBuffer[s.currentPos] = models.NewLogEntry(entry)
	s.currentPos = (s.currentPos + 1) % s.maxSize

	if s.currentPos == 0 {
		s.isFull = true
	}

	return nil
}

func (s *syncLogger) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

func (s *syncLogger) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eventBuffer = make([]*models.LogEntry, s.maxSize)
	s.currentPos = 0
	s.isFull = false
}

func (s *syncLogger) GetEvents() []*models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getEventsInternal()
}

// getEventsInternal requires the caller to hold the mutex.
func (s *syncLogger) getEventsInternal() []*models.LogEntry {
	if !s.isFull {
		// Return only filled portion
		result := make([]*models.LogEntry, s.currentPos)
		copy(result, s.eventBuffer[:s.currentPos])
		return result
	}

	// Return in chronological order (oldest first)
	result := make([]*models.LogEntry, s.maxSize)
	copy(result, s.eventBuffer[s.currentPos:])
	copy(result[s.maxSize-s.currentPos:], s.eventBuffer[:s.currentPos])
	return result
}

func (s *syncLogger) GetRecentEvents(count int) []*models.LogEntry {
	events := s.GetEvents()
	if len(events) <= count {
		return events
	}
	return events[len(events)-count:]
}
