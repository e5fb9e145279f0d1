package entity

import "sync"

// Handler receives state-change events.
type Handler func(Event)

// Bus delivers state-change events to per-entity and catch-all subscribers.
// Subscribe returns an unsubscribe func; callers pair the two around an
// entity's active lifetime.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler // entity id -> subscriber id -> handler
	all    map[int]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]map[int]Handler),
		all:  make(map[int]Handler),
	}
}

// Subscribe registers a handler for one entity's state changes.
func (b *Bus) Subscribe(entityID string, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	if b.subs[entityID] == nil {
		b.subs[entityID] = make(map[int]Handler)
	}
	b.subs[entityID][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[entityID], id)
		if len(b.subs[entityID]) == 0 {
			delete(b.subs, entityID)
		}
	}
}

// SubscribeAll registers a handler for every state change.
func (b *Bus) SubscribeAll(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.all[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// publish delivers the event synchronously to matching subscribers.
// Handlers run without the bus lock held, so a handler may subscribe or
// unsubscribe without deadlocking.
func (b *Bus) publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.EntityID])+len(b.all))
	for _, fn := range b.subs[ev.EntityID] {
		handlers = append(handlers, fn)
	}
	for _, fn := range b.all {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
