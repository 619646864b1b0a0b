package storage

import (
	"context"
	"sync"
	"time"

	"github.com/redlitmus-in/metersquare-notify/internal/notify"
)

// memoryStore keeps notifications in process memory. Used for tests and for
// deployments that treat the panel as ephemeral.
type memoryStore struct {
	mu     sync.Mutex
	events []notify.Event
}

func NewMemory() Store {
	return &memoryStore{}
}

func (m *memoryStore) Append(ctx context.Context, ev notify.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == ev.ID {
			return nil
		}
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memoryStore) MarkRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].ID == id && !m.events[i].Read {
			m.events[i].Read = true
			m.events[i].ReadAt = time.Now()
		}
	}
	return nil
}

func (m *memoryStore) MarkAllRead(ctx context.Context) error {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if !m.events[i].Read {
			m.events[i].Read = true
			m.events[i].ReadAt = now
		}
	}
	return nil
}

func (m *memoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) ListRecent(ctx context.Context, n int) ([]notify.Event, error) {
	if n <= 0 {
		n = 50
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// newest first
	out := make([]notify.Event, 0, n)
	for i := len(m.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}

func (m *memoryStore) PruneRead(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	removed := 0
	for _, e := range m.events {
		if e.Read && e.CreatedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return removed, nil
}

func (m *memoryStore) Close() error { return nil }
