package repository

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrStatusChanged is returned by conditional status writes when the stored
// status no longer matches the expected one.
var ErrStatusChanged = errors.New("document status changed")

// DefaultTimeout bounds single document operations.
const DefaultTimeout = 10 * time.Second

// NewContext derives a context bounded by DefaultTimeout.
func NewContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, DefaultTimeout)
}

// Subscription is a live query. Stop cancels it and returns once no further
// callbacks will run; it is safe to call more than once.
type Subscription interface {
	Stop()
}

type watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch runs loop in its own goroutine until the returned Subscription is
// stopped or parent is cancelled.
func Watch(parent context.Context, loop func(ctx context.Context)) Subscription {
	ctx, cancel := context.WithCancel(parent)
	w := &watcher{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		loop(ctx)
	}()
	return w
}

func (w *watcher) Stop() {
	w.cancel()
	<-w.done
}

// Hub fans change notifications for a key out to in-process listeners.
// Notifications coalesce: a listener that has not consumed the previous
// signal sees a single pending one.
type Hub struct {
	mu        sync.Mutex
	next      int
	listeners map[string]map[int]chan struct{}
}

func NewHub() *Hub {
	return &Hub{listeners: make(map[string]map[int]chan struct{})}
}

// Listen registers a listener for key. The returned func unregisters it.
func (h *Hub) Listen(key string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan struct{}, 1)
	id := h.next
	h.next++
	if h.listeners[key] == nil {
		h.listeners[key] = make(map[int]chan struct{})
	}
	h.listeners[key][id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners[key], id)
		if len(h.listeners[key]) == 0 {
			delete(h.listeners, key)
		}
	}
}

// Notify signals every listener of key.
func (h *Hub) Notify(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.listeners[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
