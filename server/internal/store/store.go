package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smartfactory/sentinel/server/internal/fleet"
)

// Listener is called with every dataset installed via Replace.
type Listener func(*fleet.Dataset)

// Regenerate produces a fresh dataset, typically with a new seed.
type Regenerate func(now time.Time) (*fleet.Dataset, error)

// Store is a thread-safe holder for the current dataset.
type Store struct {
	mu        sync.RWMutex
	current   *fleet.Dataset
	replaced  time.Time
	listeners []Listener
	now       func() time.Time // injectable for deterministic tests
}

// New creates a Store holding ds, which may be nil until the first Replace.
func New(ds *fleet.Dataset) *Store {
	s := &Store{now: time.Now}
	if ds != nil {
		s.current = ds
		s.replaced = s.now()
	}
	return s
}

// OnReplace registers fn to run after each Replace.
func (s *Store) OnReplace(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Replace discards the current dataset and installs ds in its place.
// Listeners run synchronously after the swap, outside the lock.
// A nil ds is ignored.
func (s *Store) Replace(ds *fleet.Dataset) {
	if ds == nil {
		return
	}
	s.mu.Lock()
	s.current = ds
	s.replaced = s.now()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	slog.Info("store: dataset replaced",
		"readings", ds.Len(),
		"machines", len(ds.MachineIDs()),
		"seed", ds.Seed(),
	)
	for _, fn := range listeners {
		fn(ds)
	}
}

// Current returns the installed dataset, or nil before the first Replace.
func (s *Store) Current() *fleet.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ReplacedAt returns when the current dataset was installed.
func (s *Store) ReplacedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.replaced
}

// Run regenerates the dataset every refresh interval until ctx is cancelled.
// A failed regeneration is logged and the previous dataset stays active.
// A non-positive refresh means the dataset lives for the whole run and Run
// simply blocks until ctx is done.
func (s *Store) Run(ctx context.Context, refresh time.Duration, regen Regenerate) {
	if refresh <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(refresh)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			ds, err := regen(now)
			if err != nil {
				slog.Error("store: regeneration failed, keeping previous dataset", "err", err)
				continue
			}
			s.Replace(ds)
		}
	}
}
