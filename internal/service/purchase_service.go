package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-inventory/internal/clock"
	"github.com/spec-kit/ticket-inventory/internal/domain"
	"github.com/spec-kit/ticket-inventory/internal/events"
	"github.com/spec-kit/ticket-inventory/internal/observability"
	"github.com/spec-kit/ticket-inventory/internal/repository"
)

// PurchaseService serializes concurrent purchases per ticket id. It runs an
// optimistic loop: load, apply the entity's purchase rules, store with a
// version check. A losing writer re-reads the post-decrement state and
// re-evaluates, so two callers can never both spend the same units.
// Different ticket ids never contend with each other.
type PurchaseService struct {
	tickets     repository.TicketRepository
	cache       TicketCache
	dispatcher  events.Dispatcher
	clock       clock.Clock
	logger      *zap.Logger
	metrics     *observability.Metrics
	maxAttempts int
	backoff     time.Duration
}

// PurchaseDependencies bundles collaborators for the purchase service.
type PurchaseDependencies struct {
	TicketRepo  repository.TicketRepository
	Cache       TicketCache
	Dispatcher  events.Dispatcher
	Clock       clock.Clock
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	MaxAttempts int
	Backoff     time.Duration
}

// NewPurchaseService constructs the coordinator.
func NewPurchaseService(deps PurchaseDependencies) *PurchaseService {
	cache := deps.Cache
	if cache == nil {
		cache = NewNoopTicketCache()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	maxAttempts := deps.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &PurchaseService{
		tickets:     deps.TicketRepo,
		cache:       cache,
		dispatcher:  deps.Dispatcher,
		clock:       clk,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		maxAttempts: maxAttempts,
		backoff:     deps.Backoff,
	}
}

// Execute purchases amount units of the given ticket, all or nothing.
// Deterministic rejections (bad amount, gate closed, insufficient quota)
// return immediately; write conflicts are retried up to the attempt budget
// and then surface as ErrUnavailable.
func (s *PurchaseService) Execute(ctx context.Context, ticketID string, amount int, now time.Time) (*domain.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			s.recordFailure()
			return nil, err
		}

		if err := ticket.Purchase(amount, now); err != nil {
			s.recordFailure()
			return nil, err
		}

		if err := s.tickets.Update(ctx, ticket); err != nil {
			if errors.Is(err, domain.ErrWriteConflict) {
				lastErr = err
				if s.backoff > 0 {
					select {
					case <-time.After(s.backoff):
					case <-ctx.Done():
						s.recordFailure()
						return nil, ctx.Err()
					}
				}
				continue
			}
			s.recordFailure()
			return nil, err
		}

		s.cache.Invalidate(ctx, ticket.ID)
		if s.metrics != nil {
			s.metrics.RecordPurchase(amount)
		}
		s.publishPurchased(ctx, ticket, amount, now)
		return ticket, nil
	}

	if s.logger != nil {
		s.logger.Warn("purchase retries exhausted",
			zap.String("ticket_id", ticketID),
			zap.Int("attempts", s.maxAttempts),
			zap.Error(lastErr),
		)
	}
	s.recordFailure()
	return nil, domain.ErrUnavailable
}

func (s *PurchaseService) publishPurchased(ctx context.Context, ticket *domain.Ticket, amount int, now time.Time) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketPurchased,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload: events.TicketPurchasedPayload{
			EventID:         ticket.EventID,
			Type:            ticket.Type,
			AmountPurchased: amount,
			RemainingQuota:  ticket.RemainingQuota,
		},
	})
}

func (s *PurchaseService) recordFailure() {
	if s.metrics != nil {
		s.metrics.RecordPurchaseFailure()
	}
}
