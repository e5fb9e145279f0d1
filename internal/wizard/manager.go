package wizard

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager tracks in-progress flows by id. Abandoned flows are evicted
// after a TTL; since flows mutate nothing before their terminal step,
// eviction never leaves partial state behind.
type Manager struct {
	mu    sync.Mutex
	flows map[string]*managedFlow
	ttl   time.Duration
}

type managedFlow struct {
	flow     *Flow
	lastSeen time.Time
}

// NewManager creates a flow manager with the given idle TTL.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		flows: make(map[string]*managedFlow),
		ttl:   ttl,
	}
}

// Add registers a flow and returns its id.
func (m *Manager) Add(f *Flow) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked()

	id := uuid.NewString()
	m.flows[id] = &managedFlow{flow: f, lastSeen: time.Now()}
	return id
}

// Get returns the flow with the given id.
func (m *Manager) Get(id string) (*Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mf, ok := m.flows[id]
	if !ok {
		return nil, fmt.Errorf("flow %s not found", id)
	}
	mf.lastSeen = time.Now()
	return mf.flow, nil
}

// Remove drops a flow.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, id)
}

// evictLocked drops finished and idle flows. Caller holds the lock.
func (m *Manager) evictLocked() {
	cutoff := time.Now().Add(-m.ttl)
	for id, mf := range m.flows {
		if mf.flow.Done() || mf.lastSeen.Before(cutoff) {
			delete(m.flows, id)
		}
	}
}
