// Package entity provides the in-process entity substrate: a registry of
// entity states and a bus delivering state-change events to subscribers.
package entity

import (
	"sync"
	"time"
)

// State is one entity's observable state.
type State struct {
	Value      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Event is a state-change notification.
type Event struct {
	EntityID string `json:"entity_id"`
	Old      *State `json:"old,omitempty"`
	New      State  `json:"new"`
}

// Registry holds entity states by id and publishes every change to its bus.
type Registry struct {
	mu     sync.RWMutex
	states map[string]State
	bus    *Bus
}

// NewRegistry creates an empty registry with its own bus.
func NewRegistry() *Registry {
	return &Registry{
		states: make(map[string]State),
		bus:    NewBus(),
	}
}

// Bus returns the registry's event bus.
func (r *Registry) Bus() *Bus {
	return r.bus
}

// Exists reports whether an entity with the given id is registered.
func (r *Registry) Exists(entityID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.states[entityID]
	return ok
}

// Get returns the current state of an entity.
func (r *Registry) Get(entityID string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[entityID]
	return s, ok
}

// EntityIDs returns all registered entity ids.
func (r *Registry) EntityIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	return ids
}

// Set records a new state for the entity and publishes the change.
func (r *Registry) Set(entityID string, value string, attributes map[string]any) {
	now := time.Now()
	newState := State{Value: value, Attributes: attributes, UpdatedAt: now}

	r.mu.Lock()
	var old *State
	if prev, ok := r.states[entityID]; ok {
		old = &prev
	}
	r.states[entityID] = newState
	r.mu.Unlock()

	r.bus.publish(Event{EntityID: entityID, Old: old, New: newState})
}

// Remove drops the entity from the registry without publishing.
func (r *Registry) Remove(entityID string) {
	r.mu.Lock()
	delete(r.states, entityID)
	r.mu.Unlock()
}
