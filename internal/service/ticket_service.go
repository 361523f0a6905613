package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-inventory/internal/clock"
	"github.com/spec-kit/ticket-inventory/internal/domain"
	"github.com/spec-kit/ticket-inventory/internal/events"
	"github.com/spec-kit/ticket-inventory/internal/repository"
)

// TicketService coordinates ticket intake, reads and administrative
// mutations. Quota decrements are the PurchaseService's job.
type TicketService struct {
	tickets    repository.TicketRepository
	cache      TicketCache
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Cache      TicketCache
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	EventID     string
	Type        domain.TicketType
	Price       float64
	Quota       int
	Description string
	SaleStart   time.Time
	SaleEnd     time.Time
}

// TicketUpdateInput describes a full administrative update.
type TicketUpdateInput struct {
	Type        domain.TicketType
	Price       float64
	Quota       int
	Description string
	SaleStart   time.Time
	SaleEnd     time.Time
}

// TicketListFilter describes listing parameters exposed to callers.
type TicketListFilter struct {
	EventID    *string
	Type       *domain.TicketType
	Statuses   []domain.TicketStatus
	MinPrice   *float64
	MaxPrice   *float64
	ActiveOnly bool
	Limit      int
	Offset     int
}

// BatchCreateResult reports a per-item outcome of a batch create.
type BatchCreateResult struct {
	Index  int
	Ticket *domain.Ticket
	Err    error
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	cache := deps.Cache
	if cache == nil {
		cache = NewNoopTicketCache()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		cache:      cache,
		dispatcher: deps.Dispatcher,
		clock:      clk,
		logger:     deps.Logger,
	}
}

// CreateTicket runs the draft state machine over the input and persists the
// built ticket. Field validation happens inside the draft setters.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	draft := domain.NewTicketDraft()
	if err := draft.SetType(input.Type); err != nil {
		return nil, err
	}
	if err := draft.SetPrice(input.Price); err != nil {
		return nil, err
	}
	if err := draft.SetQuota(input.Quota); err != nil {
		return nil, err
	}
	if err := draft.SetDescription(strings.TrimSpace(input.Description)); err != nil {
		return nil, err
	}
	if err := draft.SetSalesWindow(input.SaleStart, input.SaleEnd); err != nil {
		return nil, err
	}
	if err := draft.SetEventID(strings.TrimSpace(input.EventID)); err != nil {
		return nil, err
	}

	ticket, err := draft.Build(s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			EventID: ticket.EventID,
			Type:    ticket.Type,
			Quota:   ticket.Quota,
			Price:   ticket.Price,
		},
	})
	return ticket, nil
}

// CreateTicketsBatch creates tickets one by one, collecting per-item
// outcomes; a failing item does not abort the rest.
func (s *TicketService) CreateTicketsBatch(ctx context.Context, inputs []TicketCreateInput) []BatchCreateResult {
	results := make([]BatchCreateResult, 0, len(inputs))
	for i, input := range inputs {
		ticket, err := s.CreateTicket(ctx, input)
		results = append(results, BatchCreateResult{Index: i, Ticket: ticket, Err: err})
	}
	return results
}

// GetTicket returns a ticket by id, read through the cache.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	if ticket, ok := s.cache.Get(ctx, id); ok {
		return ticket, nil
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, ticket)
	return ticket, nil
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		EventID:  filter.EventID,
		Type:     filter.Type,
		Statuses: filter.Statuses,
		MinPrice: filter.MinPrice,
		MaxPrice: filter.MaxPrice,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if filter.ActiveOnly {
		now := s.clock.Now()
		repoFilter.ActiveAt = &now
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// ListByEvent returns all tickets of one event.
func (s *TicketService) ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		EventID: &eventID,
		Limit:   limit,
		Offset:  offset,
	})
}

// ListAvailable returns tickets currently open for purchase: AVAILABLE,
// inside their sale window, with units remaining.
func (s *TicketService) ListAvailable(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	now := s.clock.Now()
	minRemain := 1
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:  []domain.TicketStatus{domain.TicketStatusAvailable},
		ActiveAt:  &now,
		MinRemain: &minRemain,
		Limit:     limit,
		Offset:    offset,
	})
}

// UpdateTicket replaces the mutable attributes of an unsold ticket. A
// ticket that has sold any unit, or sits in PURCHASED/USED, is refused.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Sold() || ticket.Status == domain.TicketStatusPurchased || ticket.Status == domain.TicketStatusUsed {
		return nil, domain.ErrConflictingState
	}
	if !domain.ValidType(input.Type) {
		return nil, domain.NewFieldError("type", "unknown ticket type "+string(input.Type))
	}
	if input.Price < 0 {
		return nil, domain.NewFieldError("price", "cannot be negative")
	}
	if input.Quota <= 0 {
		return nil, domain.NewFieldError("quota", "must be positive")
	}
	if !input.SaleEnd.After(input.SaleStart) {
		return nil, domain.NewFieldError("sale_window", "sale end must be after sale start")
	}

	ticket.Type = input.Type
	ticket.Price = input.Price
	ticket.Quota = input.Quota
	ticket.RemainingQuota = input.Quota
	ticket.Description = strings.TrimSpace(input.Description)
	ticket.SaleStart = input.SaleStart
	ticket.SaleEnd = input.SaleEnd

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapAdminWriteErr(err)
	}
	s.cache.Invalidate(ctx, ticket.ID)
	return ticket, nil
}

// UpdateStatus applies an administrative status override.
func (s *TicketService) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(status) {
		return nil, domain.NewFieldError("status", "unknown status "+string(status))
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ticket.ChangeStatus(status, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapAdminWriteErr(err)
	}
	s.cache.Invalidate(ctx, ticket.ID)
	return ticket, nil
}

// ValidateTicket marks a purchased ticket as used at the gate.
func (s *TicketService) ValidateTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ticket.Validate(); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapAdminWriteErr(err)
	}
	s.cache.Invalidate(ctx, ticket.ID)
	return ticket, nil
}

// DeleteTicket removes a ticket that has sold nothing.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ticket.Sold() {
		return domain.ErrConflictingState
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// ExpireTicket runs the expiration check for a single ticket immediately,
// outside the sweeper schedule. A ticket that is not expirable is returned
// unchanged.
func (s *TicketService) ExpireTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !ticket.Expire(now) {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapAdminWriteErr(err)
	}
	s.cache.Invalidate(ctx, ticket.ID)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketExpired,
		TicketID: ticket.ID,
		Payload: events.TicketExpiredPayload{
			EventID: ticket.EventID,
			SaleEnd: ticket.SaleEnd,
		},
	})
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	s.dispatcher.Publish(ctx, event)
}

// Administrative writes are single-shot; a lost version race surfaces as a
// retryable unavailability rather than leaking the repository sentinel.
func mapAdminWriteErr(err error) error {
	if errors.Is(err, domain.ErrWriteConflict) {
		return domain.ErrUnavailable
	}
	return err
}
