package service

import (
	"sync"

	"github.com/google/uuid"

	"signal_portal/internal/models"
	"signal_portal/pkg/logger"
)

// Subscription is one live listener with its own filter and bounded queue.
type Subscription struct {
	ID     uuid.UUID
	Filter models.Filter

	ch      chan models.Signal
	dropped uint64
}

// C is the receive side of the subscription queue. It is closed on
// Unsubscribe.
func (s *Subscription) C() <-chan models.Signal { return s.ch }

// Hub fans freshly emitted signals out to every registered subscriber whose
// filter matches, keeps a bounded ring of recent signals for late joiners,
// and forwards each signal to the notification channel. Publication never
// blocks: a saturated subscriber loses its oldest queued signal instead.
type Hub struct {
	mu        sync.Mutex
	subs      map[uuid.UUID]*Subscription
	recent    []models.Signal
	recentCap int
	bufSize   int
	out       chan<- models.Signal
}

func NewHub(bufSize, recentCap int, out chan<- models.Signal) *Hub {
	if bufSize <= 0 {
		bufSize = 64
	}
	if recentCap <= 0 {
		recentCap = 100
	}
	return &Hub{
		subs:      make(map[uuid.UUID]*Subscription),
		recentCap: recentCap,
		bufSize:   bufSize,
		out:       out,
	}
}

func (h *Hub) Subscribe(f models.Filter) *Subscription {
	sub := &Subscription{
		ID:     uuid.New(),
		Filter: f,
		ch:     make(chan models.Signal, h.bufSize),
	}
	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(sub.ch)
		if sub.dropped > 0 {
			logger.Warn("subscriber %s closed, %d signals dropped", sub.ID, sub.dropped)
		}
	}
}

// Publish delivers to every matching subscriber; no ordering holds across
// subscribers. Per subscriber the queue stays FIFO; on overflow the oldest
// queued signal is dropped and counted, and the publisher moves on.
func (h *Hub) Publish(sig models.Signal) {
	h.mu.Lock()
	h.recent = append(h.recent, sig)
	if len(h.recent) > h.recentCap {
		h.recent = h.recent[len(h.recent)-h.recentCap:]
	}
	for _, sub := range h.subs {
		if !sub.Filter.Match(sig) {
			continue
		}
		h.offer(sub, sig)
	}
	h.mu.Unlock()

	if h.out != nil {
		select {
		case h.out <- sig:
		default:
			logger.Warn("notification channel full, drop %s %s %s", sig.Symbol, sig.Strategy, sig.Direction)
		}
	}
}

func (h *Hub) offer(sub *Subscription, sig models.Signal) {
	select {
	case sub.ch <- sig:
		return
	default:
	}
	// queue full: make room by discarding the oldest entry
	select {
	case <-sub.ch:
		sub.dropped++
	default:
	}
	select {
	case sub.ch <- sig:
	default:
		sub.dropped++
	}
}

// Recent returns up to limit matching signals, most recent first.
func (h *Hub) Recent(f models.Filter, limit int) []models.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > h.recentCap {
		limit = h.recentCap
	}
	out := make([]models.Signal, 0, limit)
	for i := len(h.recent) - 1; i >= 0 && len(out) < limit; i-- {
		if f.Match(h.recent[i]) {
			out = append(out, h.recent[i])
		}
	}
	return out
}

// Dropped reports the drop counter for a subscription, 0 when unknown.
func (h *Hub) Dropped(id uuid.UUID) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		return sub.dropped
	}
	return 0
}

// Subscribers reports the current number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
