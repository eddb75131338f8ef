package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	ScanStarted            EventType = "SCAN_STARTED"
	ScanCompleted          EventType = "SCAN_COMPLETED"
	ScanFailed             EventType = "SCAN_FAILED"
	SnapshotSaved          EventType = "SNAPSHOT_SAVED"
	SectorCaptureCompleted EventType = "SECTOR_CAPTURE_COMPLETED"
	TokenRefreshed         EventType = "TOKEN_REFRESHED"
	ErrorOccurred          EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Manager handles event emission and keeps a bounded in-memory tail for
// the system status endpoint
type Manager struct {
	log    zerolog.Logger
	mu     sync.Mutex
	recent []Event
	limit  int
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log:   log.With().Str("service", "events").Logger(),
		limit: 100,
	}
}

// Emit records an event and logs it
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Module:    module,
	}

	m.mu.Lock()
	m.recent = append(m.recent, event)
	if len(m.recent) > m.limit {
		m.recent = m.recent[len(m.recent)-m.limit:]
	}
	m.mu.Unlock()

	m.log.Info().
		Str("event", string(eventType)).
		Str("module", module).
		Fields(data).
		Msg("Event emitted")
}

// Recent returns a copy of the most recent events, newest last
func (m *Manager) Recent() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Event, len(m.recent))
	copy(out, m.recent)
	return out
}
