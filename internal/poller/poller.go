package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// FetchFunc produces the next value. Implementations report failure through
// the value itself, as the backend client does.
type FetchFunc[T any] func(ctx context.Context) T

// Poller refreshes a value on a fixed interval and keeps the latest result.
// Each tick waits for the previous fetch to return, so fetches never overlap.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	onUpdate func(ctx context.Context, v T)
	log      *slog.Logger

	mu      sync.RWMutex
	latest  T
	at      time.Time
	fetched bool
}

// New constructs a Poller. onUpdate may be nil.
func New[T any](name string, interval time.Duration, fetch FetchFunc[T], onUpdate func(ctx context.Context, v T), log *slog.Logger) *Poller[T] {
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		onUpdate: onUpdate,
		log:      log,
	}
}

// Run polls immediately and then on every tick until ctx is cancelled.
func (p *Poller[T]) Run(ctx context.Context) {
	p.log.Info("poller started", "name", p.name, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped", "name", p.name)
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh fetches once and stores the result.
func (p *Poller[T]) Refresh(ctx context.Context) T {
	v := p.fetch(ctx)
	if ctx.Err() != nil {
		return v
	}

	p.mu.Lock()
	p.latest, p.at, p.fetched = v, time.Now(), true
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(ctx, v)
	}
	return v
}

// Latest returns the last fetched value and whether any fetch has completed.
func (p *Poller[T]) Latest() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.fetched
}

// UpdatedAt reports when the latest value was stored.
func (p *Poller[T]) UpdatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.at
}
