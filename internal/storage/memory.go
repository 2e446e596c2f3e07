// internal/storage/memory.go
package storage

import (
	"sync"
	"time"

	"siem-anomaly-gateway/internal/data"
)

// EventStore owns the ingested event collection. The loader re-reads the
// whole alert log each cycle, so Replace swaps the entire collection rather
// than merging; readers always see either the prior or the new complete
// snapshot, never a partial one.
type EventStore struct {
	mu         sync.RWMutex
	events     []data.Event
	generation uint64
	loadedAt   time.Time
}

func NewEventStore() *EventStore {
	return &EventStore{}
}

// Replace publishes a new generation. events must already be sorted
// descending by timestamp; the store takes ownership of the slice and
// callers must not retain it.
func (s *EventStore) Replace(events []data.Event, loadedAt time.Time) data.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
	s.generation++
	s.loadedAt = loadedAt
	return s.snapshotLocked()
}

// Snapshot returns the current point-in-time view. The event slice is
// copied out so concurrent Replace calls never alias a reader's view.
func (s *EventStore) Snapshot() data.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *EventStore) snapshotLocked() data.Snapshot {
	events := make([]data.Event, len(s.events))
	copy(events, s.events)
	return data.Snapshot{
		Events:     events,
		Generation: s.generation,
		LoadedAt:   s.loadedAt,
	}
}

// Generation returns the current ingestion generation without copying
// events. 0 means no load has ever succeeded.
func (s *EventStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
