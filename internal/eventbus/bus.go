// Package eventbus is a small in-memory fanout used to decouple the
// session manager from the components observing it.
package eventbus

import (
	"sync"
	"time"
)

// Topics published across remindbot.
const (
	TopicSessionOpened   = "session.opened"
	TopicSessionClosed   = "session.closed"
	TopicSessionTerminal = "session.terminal"
	TopicCycleDone       = "notify.cycle_done"
)

// Event is a lightweight, in-memory signal.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Slow subscribers drop events (bounded backpressure).
//
// Data should be small; payload types live next to their publisher.
type Event struct {
	Topic string
	Time  time.Time
	Data  any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a simple in-memory fanout bus. It owns no goroutines.
func New() Bus {
	return &memBus{subs: map[int]chan Event{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Sends happen under the read lock; Unsubscribe takes the write lock,
	// so a channel is never closed while a send is attempted on it.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}
