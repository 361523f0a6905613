package domain

import (
	"errors"
	"testing"
	"time"
)

func newTestTicket(quota int) *Ticket {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &Ticket{
		ID:             "ticket-1",
		EventID:        "event-1",
		Type:           TicketTypeRegular,
		Price:          75,
		Quota:          quota,
		RemainingQuota: quota,
		SaleStart:      start,
		SaleEnd:        start.Add(24 * time.Hour),
		Status:         TicketStatusAvailable,
	}
}

func TestTicket_IsPurchasable(t *testing.T) {
	t.Parallel()

	ticket := newTestTicket(10)
	inWindow := ticket.SaleStart.Add(time.Hour)

	if !ticket.IsPurchasable(inWindow) {
		t.Fatal("expected purchasable inside window")
	}
	if ticket.IsPurchasable(ticket.SaleStart.Add(-time.Second)) {
		t.Fatal("not purchasable before sale start")
	}
	if ticket.IsPurchasable(ticket.SaleEnd.Add(time.Second)) {
		t.Fatal("not purchasable after sale end")
	}
	if !ticket.IsPurchasable(ticket.SaleStart) || !ticket.IsPurchasable(ticket.SaleEnd) {
		t.Fatal("window bounds are inclusive")
	}

	// purchasability derives from remaining quota, not status alone
	ticket.RemainingQuota = 0
	ticket.Status = TicketStatusAvailable
	if ticket.IsPurchasable(inWindow) {
		t.Fatal("zero remaining quota must not be purchasable even while AVAILABLE")
	}
}

func TestTicket_PurchaseScenario(t *testing.T) {
	t.Parallel()

	ticket := newTestTicket(100)
	base := ticket.SaleStart

	if err := ticket.Purchase(60, base.Add(10*time.Millisecond)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.RemainingQuota != 40 || ticket.Status != TicketStatusAvailable {
		t.Fatalf("expected 40/AVAILABLE, got %d/%s", ticket.RemainingQuota, ticket.Status)
	}

	if err := ticket.Purchase(40, base.Add(20*time.Millisecond)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.RemainingQuota != 0 || ticket.Status != TicketStatusSoldOut {
		t.Fatalf("expected 0/SOLD_OUT, got %d/%s", ticket.RemainingQuota, ticket.Status)
	}

	if err := ticket.Purchase(1, base.Add(30*time.Millisecond)); !errors.Is(err, ErrNotPurchasable) {
		t.Fatalf("expected ErrNotPurchasable, got %v", err)
	}
}

func TestTicket_PurchaseErrors(t *testing.T) {
	t.Parallel()

	now := newTestTicket(1).SaleStart.Add(time.Hour)

	t.Run("non-positive amount", func(t *testing.T) {
		ticket := newTestTicket(10)
		for _, amount := range []int{0, -3} {
			if err := ticket.Purchase(amount, now); !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
			}
		}
		if ticket.RemainingQuota != 10 {
			t.Fatalf("failed purchase must not mutate state, got %d", ticket.RemainingQuota)
		}
	})

	t.Run("amount exceeds remaining", func(t *testing.T) {
		ticket := newTestTicket(10)
		if err := ticket.Purchase(11, now); !errors.Is(err, ErrInsufficientQuota) {
			t.Fatalf("expected ErrInsufficientQuota, got %v", err)
		}
		if ticket.RemainingQuota != 10 || ticket.Status != TicketStatusAvailable {
			t.Fatalf("failed purchase must not mutate state, got %d/%s", ticket.RemainingQuota, ticket.Status)
		}
	})

	t.Run("outside window", func(t *testing.T) {
		ticket := newTestTicket(10)
		if err := ticket.Purchase(1, ticket.SaleEnd.Add(time.Hour)); !errors.Is(err, ErrNotPurchasable) {
			t.Fatalf("expected ErrNotPurchasable, got %v", err)
		}
	})

	t.Run("wrong status", func(t *testing.T) {
		ticket := newTestTicket(10)
		ticket.Status = TicketStatusExpired
		if err := ticket.Purchase(1, now); !errors.Is(err, ErrNotPurchasable) {
			t.Fatalf("expected ErrNotPurchasable, got %v", err)
		}
	})
}

func TestTicket_Validate(t *testing.T) {
	t.Parallel()

	ticket := newTestTicket(10)
	if err := ticket.Validate(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("AVAILABLE ticket must not validate, got %v", err)
	}

	ticket.Status = TicketStatusPurchased
	if err := ticket.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Status != TicketStatusUsed {
		t.Fatalf("expected USED, got %s", ticket.Status)
	}

	// validating twice fails the second time
	if err := ticket.Validate(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTicket_Expire(t *testing.T) {
	t.Parallel()

	ticket := newTestTicket(10)
	afterEnd := ticket.SaleEnd.Add(time.Minute)

	if ticket.Expire(ticket.SaleEnd.Add(-time.Minute)) {
		t.Fatal("must not expire before sale end")
	}
	if !ticket.Expire(afterEnd) {
		t.Fatal("expected expiration after sale end")
	}
	if ticket.Status != TicketStatusExpired {
		t.Fatalf("expected EXPIRED, got %s", ticket.Status)
	}

	// idempotent: a second call is a no-op
	if ticket.Expire(afterEnd) {
		t.Fatal("second expire must be a no-op")
	}
	if ticket.Status != TicketStatusExpired {
		t.Fatalf("expected EXPIRED after no-op, got %s", ticket.Status)
	}

	purchased := newTestTicket(10)
	purchased.Status = TicketStatusPurchased
	if purchased.Expire(afterEnd) {
		t.Fatal("only AVAILABLE tickets expire")
	}
}

func TestTicket_ForceAvailable(t *testing.T) {
	t.Parallel()

	t.Run("from sold out with quota restored", func(t *testing.T) {
		ticket := newTestTicket(10)
		ticket.Status = TicketStatusSoldOut
		ticket.RemainingQuota = 3
		if err := ticket.ForceAvailable(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ticket.Status != TicketStatusAvailable {
			t.Fatalf("expected AVAILABLE, got %s", ticket.Status)
		}
	})

	t.Run("refused with zero remaining", func(t *testing.T) {
		ticket := newTestTicket(10)
		ticket.Status = TicketStatusSoldOut
		ticket.RemainingQuota = 0
		if err := ticket.ForceAvailable(); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("refused from terminal states", func(t *testing.T) {
		for _, status := range []TicketStatus{TicketStatusUsed, TicketStatusExpired} {
			ticket := newTestTicket(10)
			ticket.Status = status
			if err := ticket.ForceAvailable(); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s: expected ErrInvalidTransition, got %v", status, err)
			}
		}
	})
}

func TestTicket_ChangeStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	ticket := newTestTicket(10)
	if err := ticket.ChangeStatus(TicketStatusPurchased, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ticket.ChangeStatus(TicketStatusUsed, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ticket.ChangeStatus(TicketStatusAvailable, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("USED is terminal, got %v", err)
	}

	if err := newTestTicket(10).ChangeStatus(TicketStatus("LOST"), now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown status, got %v", err)
	}
}

func TestTicket_QuotaInvariant(t *testing.T) {
	t.Parallel()

	ticket := newTestTicket(5)
	now := ticket.SaleStart.Add(time.Hour)
	for i := 0; i < 10; i++ {
		_ = ticket.Purchase(2, now)
		if ticket.RemainingQuota < 0 || ticket.RemainingQuota > ticket.Quota {
			t.Fatalf("invariant violated: %d not in [0,%d]", ticket.RemainingQuota, ticket.Quota)
		}
	}
	if ticket.RemainingQuota != 1 {
		// 5 -> 3 -> 1, then every 2-unit purchase fails
		t.Fatalf("expected 1 remaining, got %d", ticket.RemainingQuota)
	}
}
