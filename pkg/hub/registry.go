package hub

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/metrics"
)

// Subscriber is one open event stream connection.
type Subscriber interface {
	// Send hands a change event to the connection. A non nil error means the
	// subscriber is dead and will not be tried again.
	Send(e internal.ChangeEvent) error
	// Transport names the connection kind for metrics and logs.
	Transport() string
}

// Registry
// the set of live subscribers. The set never leaves this type, callers only
// get Add, Remove and Broadcast.
type Registry struct {
	mu     sync.Mutex
	subs   map[Subscriber]struct{}
	logger *log.Logger
}

func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Registry{
		subs:   make(map[Subscriber]struct{}),
		logger: logger,
	}
}

func (r *Registry) Add(s Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[s]; ok {
		return
	}
	r.subs[s] = struct{}{}
	metrics.SubscribersActive.WithLabelValues(s.Transport()).Inc()
}

// Remove is idempotent.
func (r *Registry) Remove(s Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(s)
}

// remove must be called with r.mu held.
func (r *Registry) remove(s Subscriber) {
	if _, ok := r.subs[s]; !ok {
		return
	}
	delete(r.subs, s)
	metrics.SubscribersActive.WithLabelValues(s.Transport()).Dec()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Broadcast sends e to every subscriber registered when the call started and
// returns how many accepted it. Sends happen outside the lock; subscribers
// that fail are removed together afterwards.
func (r *Registry) Broadcast(e internal.ChangeEvent) int {
	r.mu.Lock()
	snapshot := make([]Subscriber, 0, len(r.subs))
	for s := range r.subs {
		snapshot = append(snapshot, s)
	}
	r.mu.Unlock()

	metrics.ChangeEventsTotal.WithLabelValues(string(e.Kind)).Inc()

	var dead []Subscriber
	for _, s := range snapshot {
		if err := r.send(s, e); err != nil {
			r.logger.Printf("hub error :: drop %s subscriber, %v\n", s.Transport(), err)
			dead = append(dead, s)
		}
	}

	if len(dead) > 0 {
		metrics.DeliveryFailuresTotal.Add(float64(len(dead)))

		r.mu.Lock()
		for _, s := range dead {
			r.remove(s)
		}
		r.mu.Unlock()
	}

	return len(snapshot) - len(dead)
}

// send turns a panicking subscriber into a failed delivery.
func (r *Registry) send(s Subscriber, e internal.ChangeEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("subscriber panicked: %v", p)
		}
	}()
	return s.Send(e)
}

// Publish lets the registry act as the watcher's event sink.
func (r *Registry) Publish(e internal.ChangeEvent) {
	r.Broadcast(e)
}
