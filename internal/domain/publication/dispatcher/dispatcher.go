package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadim/planer/internal/domain/publication/entity"
	"github.com/vadim/planer/internal/publisher"
)

// Store is the publication persistence the dispatcher needs
type Store interface {
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]entity.Publication, error)
	LoadJob(ctx context.Context, pub *entity.Publication) (*entity.Job, error)
	MarkPublished(ctx context.Context, id, platformID, link string) error
	MarkError(ctx context.Context, id, message string) error
}

// Dispatcher periodically claims due publications and hands them to
// the platform drivers. A claim flips rows to PUBLISHING inside one
// transaction, so concurrent instances never pick the same row.
type Dispatcher struct {
	store       Store
	registry    *publisher.Registry
	interval    time.Duration
	batchSize   int
	workers     int
	itemTimeout time.Duration
	logger      *slog.Logger
	stopCh      chan struct{}
	wg          sync.WaitGroup
	running     bool
	mu          sync.Mutex
}

// New creates a new dispatcher
func New(store Store, registry *publisher.Registry, interval time.Duration, batchSize, workers int, itemTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		store:       store,
		registry:    registry,
		interval:    interval,
		batchSize:   batchSize,
		workers:     workers,
		itemTimeout: itemTimeout,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Start starts the dispatch loop
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("publication dispatcher started",
		"interval", d.interval, "batch_size", d.batchSize, "workers", d.workers)

	d.wg.Add(1)
	go d.run(ctx)
}

// Stop stops the dispatch loop and waits for in-flight items
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()
	d.logger.Info("publication dispatcher stopped")
}

// run is the main dispatch loop
func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Run immediately on start
	d.tick(ctx)

	for {
		select {
		case <-ticker.C:
			d.tick(ctx)
		case <-d.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick claims one batch and processes it with the worker pool,
// preserving publish_at order on handoff.
func (d *Dispatcher) tick(ctx context.Context) {
	pubs, err := d.store.ClaimDue(ctx, time.Now().UTC(), d.batchSize)
	if err != nil {
		d.logger.Error("failed to claim due publications", "error", err)
		return
	}
	if len(pubs) == 0 {
		return
	}

	d.logger.Info("claimed due publications", "count", len(pubs))

	queue := make(chan *entity.Publication)
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pub := range queue {
				d.process(ctx, pub)
			}
		}()
	}
	for i := range pubs {
		queue <- &pubs[i]
	}
	close(queue)
	wg.Wait()
}

// process publishes one claimed publication and records the terminal
// state. Claimed rows always end in PUBLISHED or ERROR, even on panic.
func (d *Dispatcher) process(ctx context.Context, pub *entity.Publication) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("publish panicked", "publication_id", pub.ID, "panic", r)
			d.markError(pub.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	itemCtx, cancel := context.WithTimeout(ctx, d.itemTimeout)
	defer cancel()

	driver, err := d.registry.Lookup(pub.Platform)
	if err != nil {
		d.markError(pub.ID, err.Error())
		return
	}

	job, err := d.store.LoadJob(itemCtx, pub)
	if err != nil {
		d.logger.Error("failed to load publication job", "publication_id", pub.ID, "error", err)
		d.markError(pub.ID, fmt.Sprintf("loading publication: %v", err))
		return
	}

	result, err := driver.Publish(itemCtx, job)
	if err != nil {
		msg := err.Error()
		if itemCtx.Err() == context.DeadlineExceeded {
			msg = fmt.Sprintf("publish timed out after %s: %s", d.itemTimeout, msg)
		}
		d.logger.Error("publish failed",
			"publication_id", pub.ID, "platform", pub.Platform, "error", err)
		d.markError(pub.ID, msg)
		return
	}

	d.logger.Info("publication published",
		"publication_id", pub.ID, "platform", pub.Platform, "platform_id", result.PlatformID)

	// Terminal updates run on a fresh context so an expired item
	// deadline cannot strand the row in PUBLISHING.
	updateCtx, updateCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer updateCancel()
	if err := d.store.MarkPublished(updateCtx, pub.ID, result.PlatformID, result.Link); err != nil {
		d.logger.Error("failed to mark publication published", "publication_id", pub.ID, "error", err)
	}
}

// markError records the terminal ERROR state on a fresh context
func (d *Dispatcher) markError(id, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.store.MarkError(ctx, id, message); err != nil {
		d.logger.Error("failed to mark publication errored", "publication_id", id, "error", err)
	}
}
