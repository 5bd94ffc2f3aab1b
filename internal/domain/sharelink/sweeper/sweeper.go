package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store deactivates share links whose expiry has passed
type Store interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deactivates expired share links so resolution
// checks stay a plain flag read.
type Sweeper struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// New creates a new sweeper
func New(store Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the sweep loop
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("share link sweeper started", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the sweep loop
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("share link sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.store.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("failed to sweep expired share links", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("deactivated expired share links", "count", n)
	}
}
