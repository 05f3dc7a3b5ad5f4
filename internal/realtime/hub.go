// Package realtime delivers product table change events to in-process
// subscribers.
package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
)

// Hub fans change events out to subscriptions. Publishing never blocks on a
// slow subscriber: each subscription buffers its own backlog.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}

	published atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

// Subscribe registers a new subscription. Close it to unregister.
func (h *Hub) Subscribe() catalog.Subscription {
	s := &subscription{
		hub:    h,
		notify: make(chan struct{}, 1),
		out:    make(chan catalog.Event, 16),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	go s.pump()
	return s
}

// Publish delivers ev to every current subscription.
func (h *Hub) Publish(ev catalog.Event) {
	h.published.Add(1)
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.enqueue(ev)
	}
}

// Subscribers reports the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Published reports the number of events published so far.
func (h *Hub) Published() uint64 {
	return h.published.Load()
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

type subscription struct {
	hub *Hub

	mu      sync.Mutex
	backlog []catalog.Event
	notify  chan struct{}
	out     chan catalog.Event
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) Events() <-chan catalog.Event {
	return s.out
}

// Close unregisters the subscription. Events is closed shortly after.
func (s *subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}

func (s *subscription) enqueue(ev catalog.Event) {
	s.mu.Lock()
	s.backlog = append(s.backlog, ev)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// pump moves the backlog onto out in order until the subscription closes.
func (s *subscription) pump() {
	defer close(s.out)
	for {
		for {
			ev, ok := s.next()
			if !ok {
				break
			}
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
		select {
		case <-s.done:
			return
		case <-s.notify:
		}
	}
}

func (s *subscription) next() (catalog.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.backlog) == 0 {
		return catalog.Event{}, false
	}
	ev := s.backlog[0]
	s.backlog = s.backlog[1:]
	return ev, true
}
