// Package event provides the small publish/subscribe bus that decouples
// derived-state producers (streak machine, medal rules) from whichever UI
// surface happens to be mounted. Producers never assume a subscriber is
// present; anything that must survive an unmounted UI is persisted instead.
package event

import (
	"sync"
)

// Event names emitted by the core.
const (
	MedalUnlocked = "MEDAL_UNLOCKED"
	StreakUpdated = "STREAK_UPDATED"
	StreakLost    = "STREAK_LOST"
)

// Handler receives the arguments passed to Emit.
type Handler func(args ...interface{})

type subscription struct {
	id      int
	handler Handler
}

// Bus is an in-process pub/sub registry. Handlers for the same event fire
// synchronously in subscription order; no ordering holds across distinct
// event names.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// On registers handler for the named event and returns an unsubscribe
// function. Unsubscribing twice is harmless.
func (b *Bus) On(name string, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[name]
		for i, s := range subs {
			if s.id == id {
				b.subs[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every handler registered for the named event, in subscription
// order, on the caller's goroutine.
func (b *Bus) Emit(name string, args ...interface{}) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs[name]))
	copy(subs, b.subs[name])
	b.mu.Unlock()

	for _, s := range subs {
		s.handler(args...)
	}
}
