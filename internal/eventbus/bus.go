package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the host and its plugins.
const (
	TypePluginLoaded   = "plugin.loaded"
	TypePluginUnloaded = "plugin.unloaded"
	TypePluginFailed   = "plugin.failed"
	TypeAdvertSent     = "advert.sent"
	TypeConfigApplied  = "config.applied"
)

// Event is a small in-memory signal.
//
// Publish never blocks: every subscriber has a bounded buffer and a slow
// subscriber loses events instead of stalling the publisher (usually a timer
// tick).
type Event struct {
	Type string
	Time time.Time
	Data any
}

// PluginEvent is the payload of plugin.* events.
type PluginEvent struct {
	Plugin string        `json:"plugin"`
	Took   time.Duration `json:"took,omitempty"`
	Err    string        `json:"err,omitempty"`
}

// AdvertSent is the payload of advert.sent.
type AdvertSent struct {
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

type Bus interface {
	Publish(e Event)
	// Subscribe registers a subscriber. With no types it receives every event.
	Subscribe(buffer int, types ...string) (ch <-chan Event, unsubscribe func())
	// Dropped reports how many deliveries were skipped because a subscriber
	// buffer was full.
	Dropped() uint64
}

func New() Bus {
	return &memBus{subs: map[uint64]*subscriber{}}
}

type subscriber struct {
	ch    chan Event
	types map[string]struct{}
}

func (s *subscriber) wants(typ string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[typ]
	return ok
}

type memBus struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	seq     atomic.Uint64
	dropped atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// The read lock is held across sends so unsubscribe (which closes the
	// channel under the write lock) cannot race a send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.wants(e.Type) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *memBus) Subscribe(buffer int, types ...string) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	s := &subscriber{ch: make(chan Event, buffer)}
	if len(types) > 0 {
		s.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			s.types[t] = struct{}{}
		}
	}
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(s.ch)
			b.mu.Unlock()
		})
	}
}

func (b *memBus) Dropped() uint64 { return b.dropped.Load() }
