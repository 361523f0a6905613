package domain

import "time"

// TicketStatus enumerates business lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "AVAILABLE"
	TicketStatusPurchased TicketStatus = "PURCHASED"
	TicketStatusSoldOut   TicketStatus = "SOLD_OUT"
	TicketStatusUsed      TicketStatus = "USED"
	TicketStatusExpired   TicketStatus = "EXPIRED"
)

// ValidStatus reports whether s is a member of the closed status set.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusAvailable, TicketStatusPurchased, TicketStatusSoldOut, TicketStatusUsed, TicketStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusUsed || s == TicketStatusExpired
}

// TicketType enumerates sellable ticket categories.
type TicketType string

const (
	TicketTypeRegular TicketType = "REGULAR"
	TicketTypeVIP     TicketType = "VIP"
)

// ValidType reports whether t is a member of the closed type set.
func ValidType(t TicketType) bool {
	return t == TicketTypeRegular || t == TicketTypeVIP
}

// Ticket is the sellable inventory aggregate for one ticket type of an event.
// Status and RemainingQuota are the only fields mutated after creation;
// Version backs the repository's conflicting-write detection.
type Ticket struct {
	ID             string
	EventID        string
	Type           TicketType
	Price          float64
	Quota          int
	RemainingQuota int
	Description    string
	SaleStart      time.Time
	SaleEnd        time.Time
	Status         TicketStatus
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsPurchasable is the single authoritative gate evaluated before any quota
// mutation. Purchasability derives from remaining quota as well as status:
// a ticket whose quota reached zero is not purchasable even if its status
// still reads AVAILABLE.
func (t *Ticket) IsPurchasable(now time.Time) bool {
	return t.Status == TicketStatusAvailable &&
		t.RemainingQuota > 0 &&
		!now.Before(t.SaleStart) &&
		!now.After(t.SaleEnd)
}

// Purchase decrements the remaining quota by amount. The ticket transitions
// to SOLD_OUT when the decrement empties the quota. On error no state is
// mutated.
func (t *Ticket) Purchase(amount int, now time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !t.IsPurchasable(now) {
		return ErrNotPurchasable
	}
	if amount > t.RemainingQuota {
		return ErrInsufficientQuota
	}
	t.RemainingQuota -= amount
	if t.RemainingQuota == 0 {
		t.Status = TicketStatusSoldOut
	}
	return nil
}

// Validate marks a purchased ticket as used at the gate.
func (t *Ticket) Validate() error {
	if t.Status != TicketStatusPurchased {
		return ErrInvalidTransition
	}
	t.Status = TicketStatusUsed
	return nil
}

// Expire transitions an AVAILABLE ticket whose sale window has lapsed to
// EXPIRED. It reports whether a transition happened; calling it on a ticket
// that is not expirable is a no-op, not an error.
func (t *Ticket) Expire(now time.Time) bool {
	if t.Status != TicketStatusAvailable || !now.After(t.SaleEnd) {
		return false
	}
	t.Status = TicketStatusExpired
	return true
}

// ForceAvailable is the administrative override back to AVAILABLE. Terminal
// tickets and tickets with no remaining quota are refused.
func (t *Ticket) ForceAvailable() error {
	if t.Status.IsTerminal() || t.RemainingQuota <= 0 {
		return ErrInvalidTransition
	}
	t.Status = TicketStatusAvailable
	return nil
}

// ChangeStatus applies an administrative status override, dispatching to the
// transition rules above.
func (t *Ticket) ChangeStatus(status TicketStatus, now time.Time) error {
	switch status {
	case TicketStatusAvailable:
		return t.ForceAvailable()
	case TicketStatusUsed:
		return t.Validate()
	case TicketStatusExpired:
		if !t.Expire(now) {
			return ErrInvalidTransition
		}
		return nil
	case TicketStatusPurchased, TicketStatusSoldOut:
		if t.Status.IsTerminal() {
			return ErrInvalidTransition
		}
		t.Status = status
		return nil
	}
	return ErrValidation
}

// Sold reports whether at least one unit has been sold.
func (t *Ticket) Sold() bool {
	return t.RemainingQuota < t.Quota
}
