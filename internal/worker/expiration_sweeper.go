package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-inventory/internal/clock"
	"github.com/spec-kit/ticket-inventory/internal/domain"
	"github.com/spec-kit/ticket-inventory/internal/events"
	"github.com/spec-kit/ticket-inventory/internal/observability"
	"github.com/spec-kit/ticket-inventory/internal/repository"
	"github.com/spec-kit/ticket-inventory/internal/service"
)

// ExpirationSweeper periodically flips AVAILABLE tickets with a lapsed sale
// window to EXPIRED. Each ticket is handled independently so a pass can be
// parallelized and rerun without observable change; a version conflict on
// one ticket is skipped and picked up on the next tick.
type ExpirationSweeper struct {
	tickets     repository.TicketRepository
	cache       service.TicketCache
	dispatcher  events.Dispatcher
	clock       clock.Clock
	logger      *zap.Logger
	metrics     *observability.Metrics
	interval    time.Duration
	concurrency int
}

// SweeperDependencies bundles collaborators for the sweeper.
type SweeperDependencies struct {
	TicketRepo  repository.TicketRepository
	Cache       service.TicketCache
	Dispatcher  events.Dispatcher
	Clock       clock.Clock
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Interval    time.Duration
	Concurrency int
}

// NewExpirationSweeper constructs the sweeper.
func NewExpirationSweeper(deps SweeperDependencies) *ExpirationSweeper {
	cache := deps.Cache
	if cache == nil {
		cache = service.NewNoopTicketCache()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ExpirationSweeper{
		tickets:     deps.TicketRepo,
		cache:       cache,
		dispatcher:  deps.Dispatcher,
		clock:       clk,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		interval:    interval,
		concurrency: concurrency,
	}
}

// Run executes sweep passes on the configured interval until ctx is
// cancelled. One pass runs per tick.
func (w *ExpirationSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := w.Sweep(ctx)
			if err != nil && w.logger != nil {
				w.logger.Error("expiration sweep failed", zap.Error(err))
			} else if w.logger != nil && expired > 0 {
				w.logger.Info("expiration sweep", zap.Int("expired", expired))
			}
		}
	}
}

// Sweep performs a single pass and returns how many tickets it expired.
func (w *ExpirationSweeper) Sweep(ctx context.Context) (int, error) {
	now := w.clock.Now()
	candidates, err := w.tickets.ListExpirable(ctx, now)
	if err != nil {
		return 0, err
	}

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	expired := 0

	for i := range candidates {
		ticket := candidates[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if w.expireOne(ctx, &ticket, now) {
				mu.Lock()
				expired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if w.metrics != nil {
		w.metrics.RecordSweep(expired)
	}
	return expired, nil
}

func (w *ExpirationSweeper) expireOne(ctx context.Context, ticket *domain.Ticket, now time.Time) bool {
	if !ticket.Expire(now) {
		return false
	}
	if err := w.tickets.Update(ctx, ticket); err != nil {
		// a concurrent writer moved the ticket; the next pass re-checks it
		if !errors.Is(err, domain.ErrWriteConflict) && w.logger != nil {
			w.logger.Error("failed to persist expiration",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
		return false
	}
	w.cache.Invalidate(ctx, ticket.ID)
	if w.dispatcher != nil {
		w.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketExpired,
			TicketID:  ticket.ID,
			Timestamp: now,
			Payload: events.TicketExpiredPayload{
				EventID: ticket.EventID,
				SaleEnd: ticket.SaleEnd,
			},
		})
	}
	return true
}
