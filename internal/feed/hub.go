// Package feed fans attendance events out to live subscribers.
package feed

import (
	"sync"

	"github.com/rs/zerolog"

	"timeclock/internal/attendance"
)

// Hub is an attendance.Notifier that copies each event to every
// subscriber. A subscriber that falls behind is dropped rather than
// blocking check-ins.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	log    zerolog.Logger
}

var _ attendance.Notifier = (*Hub)(nil)

func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		log:    logger.With().Str("component", "feed").Logger(),
	}
}

// Subscription receives events on C until it is closed by Unsubscribe or
// by the hub dropping it.
type Subscription struct {
	C    <-chan attendance.Event
	ch   chan attendance.Event
	once sync.Once
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

func (h *Hub) Subscribe() *Subscription {
	ch := make(chan attendance.Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.log.Debug().Int("subscribers", n).Msg("subscribed")
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

func (h *Hub) Notify(ev attendance.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			delete(h.subs, sub)
			sub.close()
			h.log.Warn().Msg("dropped slow subscriber")
		}
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
