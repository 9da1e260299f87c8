package sync

import (
	"sync"

	"github.com/notewind/syncagent/internal/models"
)

// Reporter fans ProgressEvents out to any number of subscribers. Delivery is
// best-effort: a subscriber whose channel is full misses events rather than
// stalling the sync pass, since progress is purely informational.
type Reporter struct {
	mu   sync.RWMutex
	subs map[int]chan models.ProgressEvent
	next int
}

func NewReporter() *Reporter {
	return &Reporter{
		subs: make(map[int]chan models.ProgressEvent),
	}
}

// Subscribe registers a listener and returns its event channel along with an
// unsubscribe function. Unsubscribing closes the channel.
func (r *Reporter) Subscribe(buffer int) (<-chan models.ProgressEvent, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan models.ProgressEvent, buffer)

	r.mu.Lock()
	id := r.next
	r.next++
	r.subs[id] = ch
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking.
func (r *Reporter) Publish(event models.ProgressEvent) {
	if r == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sub := range r.subs {
		select {
		case sub <- event:
		default:
		}
	}
}
