package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/ticket-inventory/internal/domain"
	"github.com/spec-kit/ticket-inventory/internal/events"
	"github.com/spec-kit/ticket-inventory/internal/observability"
)

func purchaseTicket(quota int) domain.Ticket {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return domain.Ticket{
		ID:             "ticket-1",
		EventID:        "event-1",
		Type:           domain.TicketTypeRegular,
		Price:          50,
		Quota:          quota,
		RemainingQuota: quota,
		SaleStart:      start,
		SaleEnd:        start.Add(24 * time.Hour),
		Status:         domain.TicketStatusAvailable,
	}
}

func newPurchaseService(repo *fakeTicketRepo, dispatcher *fakeDispatcher, metrics *observability.Metrics) *PurchaseService {
	return NewPurchaseService(PurchaseDependencies{
		TicketRepo: repo,
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})
}

func TestPurchaseService_Execute(t *testing.T) {
	t.Parallel()

	t.Run("decrements and persists", func(t *testing.T) {
		repo := newFakeTicketRepo(purchaseTicket(100))
		dispatcher := &fakeDispatcher{}
		metrics := observability.NewMetrics()
		svc := newPurchaseService(repo, dispatcher, metrics)
		now := purchaseTicket(100).SaleStart.Add(time.Hour)

		ticket, err := svc.Execute(context.Background(), "ticket-1", 60, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ticket.RemainingQuota != 40 || ticket.Status != domain.TicketStatusAvailable {
			t.Fatalf("expected 40/AVAILABLE, got %d/%s", ticket.RemainingQuota, ticket.Status)
		}
		stored, _ := repo.get("ticket-1")
		if stored.RemainingQuota != 40 {
			t.Fatalf("expected persisted 40, got %d", stored.RemainingQuota)
		}

		published := dispatcher.published()
		if len(published) != 1 || published[0].Type != events.EventTicketPurchased {
			t.Fatalf("expected one ticket_purchased event, got %v", published)
		}
		payload, ok := published[0].Payload.(events.TicketPurchasedPayload)
		if !ok {
			t.Fatalf("unexpected payload type %T", published[0].Payload)
		}
		if payload.AmountPurchased != 60 || payload.RemainingQuota != 40 || payload.EventID != "event-1" {
			t.Fatalf("unexpected payload %+v", payload)
		}

		purchased, _, _, _ := metrics.Snapshot()
		if purchased != 60 {
			t.Fatalf("expected purchase counter 60, got %d", purchased)
		}
	})

	t.Run("sells out on exact remainder", func(t *testing.T) {
		repo := newFakeTicketRepo(purchaseTicket(40))
		svc := newPurchaseService(repo, &fakeDispatcher{}, nil)
		now := purchaseTicket(40).SaleStart.Add(time.Hour)

		ticket, err := svc.Execute(context.Background(), "ticket-1", 40, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ticket.RemainingQuota != 0 || ticket.Status != domain.TicketStatusSoldOut {
			t.Fatalf("expected 0/SOLD_OUT, got %d/%s", ticket.RemainingQuota, ticket.Status)
		}
	})

	t.Run("deterministic rejections do not retry or mutate", func(t *testing.T) {
		repo := newFakeTicketRepo(purchaseTicket(10))
		dispatcher := &fakeDispatcher{}
		svc := newPurchaseService(repo, dispatcher, nil)
		now := purchaseTicket(10).SaleStart.Add(time.Hour)

		cases := []struct {
			name   string
			amount int
			at     time.Time
			want   error
		}{
			{"invalid amount", 0, now, domain.ErrInvalidAmount},
			{"insufficient quota", 11, now, domain.ErrInsufficientQuota},
			{"outside window", 1, now.Add(48 * time.Hour), domain.ErrNotPurchasable},
		}
		for _, tc := range cases {
			if _, err := svc.Execute(context.Background(), "ticket-1", tc.amount, tc.at); !errors.Is(err, tc.want) {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
			}
		}

		stored, _ := repo.get("ticket-1")
		if stored.RemainingQuota != 10 {
			t.Fatalf("rejections must not mutate state, got %d", stored.RemainingQuota)
		}
		if len(dispatcher.published()) != 0 {
			t.Fatal("rejections must not publish events")
		}
		if repo.updates != 0 {
			t.Fatalf("rejections must not reach the store, got %d updates", repo.updates)
		}
	})

	t.Run("unknown ticket", func(t *testing.T) {
		svc := newPurchaseService(newFakeTicketRepo(), &fakeDispatcher{}, nil)
		if _, err := svc.Execute(context.Background(), "nope", 1, time.Now()); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("retries through a write conflict", func(t *testing.T) {
		repo := newFakeTicketRepo(purchaseTicket(100))
		conflicts := 2
		repo.beforeUpdate = func(*domain.Ticket) error {
			if conflicts > 0 {
				conflicts--
				return domain.ErrWriteConflict
			}
			return nil
		}
		svc := newPurchaseService(repo, &fakeDispatcher{}, nil)
		now := purchaseTicket(100).SaleStart.Add(time.Hour)

		ticket, err := svc.Execute(context.Background(), "ticket-1", 5, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ticket.RemainingQuota != 95 {
			t.Fatalf("expected 95 remaining, got %d", ticket.RemainingQuota)
		}
		if repo.updates != 3 {
			t.Fatalf("expected 3 update attempts, got %d", repo.updates)
		}
	})

	t.Run("exhausted retries surface as unavailable", func(t *testing.T) {
		repo := newFakeTicketRepo(purchaseTicket(100))
		repo.beforeUpdate = func(*domain.Ticket) error {
			return domain.ErrWriteConflict
		}
		metrics := observability.NewMetrics()
		svc := newPurchaseService(repo, &fakeDispatcher{}, metrics)
		now := purchaseTicket(100).SaleStart.Add(time.Hour)

		if _, err := svc.Execute(context.Background(), "ticket-1", 5, now); !errors.Is(err, domain.ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
		stored, _ := repo.get("ticket-1")
		if stored.RemainingQuota != 100 {
			t.Fatalf("exhausted purchase must not mutate state, got %d", stored.RemainingQuota)
		}
		_, fails, _, _ := metrics.Snapshot()
		if fails != 1 {
			t.Fatalf("expected one recorded failure, got %d", fails)
		}
	})
}

func TestPurchaseService_ConcurrentContenders(t *testing.T) {
	t.Parallel()

	repo := newFakeTicketRepo(purchaseTicket(100))
	svc := newPurchaseService(repo, &fakeDispatcher{}, nil)
	now := purchaseTicket(100).SaleStart.Add(time.Hour)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Execute(context.Background(), "ticket-1", 60, now)
		}(i)
	}
	wg.Wait()

	var successes, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrInsufficientQuota):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one winner and one InsufficientQuota, got %d/%d", successes, insufficient)
	}
	stored, _ := repo.get("ticket-1")
	if stored.RemainingQuota != 40 {
		t.Fatalf("expected 40 remaining, got %d", stored.RemainingQuota)
	}
}

func TestPurchaseService_NoOversell(t *testing.T) {
	t.Parallel()

	const quota = 100
	const callers = 30
	const amount = 7

	repo := newFakeTicketRepo(purchaseTicket(quota))
	svc := newPurchaseService(repo, &fakeDispatcher{}, nil)
	now := purchaseTicket(quota).SaleStart.Add(time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Execute(context.Background(), "ticket-1", amount, now); err == nil {
				mu.Lock()
				accepted += amount
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted > quota {
		t.Fatalf("oversell: accepted %d of quota %d", accepted, quota)
	}
	stored, _ := repo.get("ticket-1")
	if stored.RemainingQuota != quota-accepted {
		t.Fatalf("remaining %d inconsistent with accepted %d", stored.RemainingQuota, accepted)
	}
	if stored.RemainingQuota < 0 {
		t.Fatalf("remaining quota went negative: %d", stored.RemainingQuota)
	}
}
