package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// Registry owns one Store per device and closes the ones left idle.
type Registry struct {
	deps Deps
	idle time.Duration

	mu     sync.Mutex
	stores map[string]*registryEntry
}

func NewRegistry(deps Deps, idle time.Duration) *Registry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Registry{deps: deps, idle: idle, stores: make(map[string]*registryEntry)}
}

// Get returns the device's Store, creating and bootstrapping it on first use.
func (r *Registry) Get(ctx context.Context, device string) (*Store, error) {
	r.mu.Lock()
	if e, ok := r.stores[device]; ok {
		e.lastSeen = r.deps.Now()
		r.mu.Unlock()
		return e.store, nil
	}
	st := NewStore(device, r.deps)
	r.stores[device] = &registryEntry{store: st, lastSeen: r.deps.Now()}
	r.mu.Unlock()

	if err := st.Bootstrap(ctx); err != nil {
		r.mu.Lock()
		delete(r.stores, device)
		r.mu.Unlock()
		st.Close()
		return nil, err
	}
	r.deps.Logger.Debug("session.Registry: store created", zap.String("device", device))
	return st, nil
}

// Touch marks a device as active.
func (r *Registry) Touch(device string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.stores[device]; ok {
		e.lastSeen = r.deps.Now()
	}
}

// Len reports how many stores are open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep closes stores idle for longer than the idle timeout and with no
// observers attached. It returns how many were closed.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.deps.Now()
	var stale []*Store

	r.mu.Lock()
	for device, e := range r.stores {
		if now.Sub(e.lastSeen) < r.idle || e.store.ObserverCount() > 0 {
			continue
		}
		stale = append(stale, e.store)
		delete(r.stores, device)
	}
	r.mu.Unlock()

	for _, st := range stale {
		st.Close()
		if err := st.Drain(ctx); err != nil {
			r.deps.Logger.Warn("session.Registry: pending writes outlived sweep", zap.String("device", st.Device()), zap.Error(err))
		}
	}
	if len(stale) > 0 {
		r.deps.Logger.Info("session.Registry: idle stores closed", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// RunJanitor sweeps on every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// CloseAll closes every store and waits for their remote writes.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for device, e := range r.stores {
		stores = append(stores, e.store)
		delete(r.stores, device)
	}
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, st := range stores {
		st := st
		g.Go(func() error {
			st.Close()
			return st.Drain(gctx)
		})
	}
	return g.Wait()
}
