package service

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/ticket-inventory/internal/domain"
	"github.com/spec-kit/ticket-inventory/internal/events"
	"github.com/spec-kit/ticket-inventory/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository with the same version
// semantics as the postgres implementation: an update carrying a stale
// version loses with domain.ErrWriteConflict.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket

	// beforeUpdate, when set, runs under the lock before the version check.
	beforeUpdate func(*domain.Ticket) error
	gets         int
	updates      int
}

func newFakeTicketRepo(tickets ...domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
	for _, t := range tickets {
		if t.Version == 0 {
			t.Version = 1
		}
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.Version = 1
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	stored, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := stored
	return &copy, nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.beforeUpdate != nil {
		if err := r.beforeUpdate(ticket); err != nil {
			return err
		}
	}
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != ticket.Version {
		return domain.ErrWriteConflict
	}
	ticket.Version++
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.tickets {
		if filter.EventID != nil && t.EventID != *filter.EventID {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		if filter.ActiveAt != nil && (filter.ActiveAt.Before(t.SaleStart) || filter.ActiveAt.After(t.SaleEnd)) {
			continue
		}
		if filter.MinRemain != nil && t.RemainingQuota < *filter.MinRemain {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (r *fakeTicketRepo) ListExpirable(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.tickets {
		if t.Status == domain.TicketStatusAvailable && t.SaleEnd.Before(now) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) get(id string) (domain.Ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	return t, ok
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// fakeDispatcher records published events.
type fakeDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *fakeDispatcher) Publish(_ context.Context, event events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *fakeDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *fakeDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}

// fakeCache records cache traffic.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.Ticket
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.Ticket)}
}

func (c *fakeCache) Get(_ context.Context, id string) (*domain.Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[id]
	return t, ok
}

func (c *fakeCache) Set(_ context.Context, ticket *domain.Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy := *ticket
	c.entries[ticket.ID] = &copy
}

func (c *fakeCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
}
