package store

import (
	"sync"
	"time"

	"github.com/riverclinic/ubscare/pkg/types"
)

// subscriber buffers events for one view. Sends never block: a full buffer
// drops the event, and the schedule watcher's periodic refresh reconciles
// anything missed.
type subscriber struct {
	ch          chan types.ChangeEvent
	collections map[string]bool // empty means all collections
}

// Bus fans collection change notifications out to subscribed views.
// Delivery is at-least-once with no ordering guarantee.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
}

// NewBus creates a change-notification bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Publish announces that a collection changed.
func (b *Bus) Publish(collection string) {
	event := types.ChangeEvent{Collection: collection, At: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if len(sub.collections) > 0 && !sub.collections[collection] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Subscriber is not draining; the periodic refresh covers it.
		}
	}
}

// Subscribe registers interest in the given collections (all collections
// when none are named) and returns the event channel plus a cancel func.
func (b *Bus) Subscribe(collections ...string) (<-chan types.ChangeEvent, func()) {
	sub := &subscriber{
		ch:          make(chan types.ChangeEvent, 16),
		collections: make(map[string]bool, len(collections)),
	}
	for _, c := range collections {
		sub.collections[c] = true
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
	}

	return sub.ch, cancel
}
