// Package feed is the write-side invalidation bus. Every mutation publishes
// an event tagged with the entity keys it touched; read-side caches
// subscribe and refresh on matching keys. This replaces the old implicit
// cache-key convention with an explicit publish step.
package feed

import (
	"log/slog"
	"sync"
)

// Key names a cached read whose result a mutation can invalidate.
type Key string

const (
	KeyJobs         Key = "jobs"
	KeyContacts     Key = "contacts"
	KeyActivityFeed Key = "activity-feed"
)

// JobComments is the key for one job's comment thread.
func JobComments(jobID string) Key {
	return Key("job-comments/" + jobID)
}

// JobActivity is the key for one job's activity list.
func JobActivity(jobID string) Key {
	return Key("job-activity/" + jobID)
}

// Event carries the keys one mutation invalidated.
type Event struct {
	Keys []Key
}

// Has reports whether the event carries k.
func (e Event) Has(k Key) bool {
	for _, key := range e.Keys {
		if key == k {
			return true
		}
	}
	return false
}

// Bus fans mutation events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event, which is safe because
// subscribers refresh from the store rather than applying deltas.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subs: make(map[int]chan Event), logger: logger}
}

// Subscribe registers a new subscriber with the given channel buffer and
// returns the event channel plus a cancel func. Cancel is idempotent and
// closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Publish delivers an event tagged with keys to every subscriber.
func (b *Bus) Publish(keys ...Key) {
	if len(keys) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	ev := Event{Keys: keys}
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("feed subscriber lagging, event dropped", "subscriber", id)
		}
	}
}

// Close shuts the bus down and closes all subscriber channels. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
