package events

import (
	"time"

	"github.com/spec-kit/ticket-inventory/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketPurchased EventType = "ticket_purchased"
	EventTicketExpired   EventType = "ticket_expired"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	EventID string            `json:"event_id"`
	Type    domain.TicketType `json:"type"`
	Quota   int               `json:"quota"`
	Price   float64           `json:"price"`
}

// TicketPurchasedPayload carries the post-purchase ticket state and the
// purchased amount.
type TicketPurchasedPayload struct {
	EventID         string            `json:"event_id"`
	Type            domain.TicketType `json:"type"`
	AmountPurchased int               `json:"amount_purchased"`
	RemainingQuota  int               `json:"resulting_remaining_quota"`
}

// TicketExpiredPayload payload.
type TicketExpiredPayload struct {
	EventID string    `json:"event_id"`
	SaleEnd time.Time `json:"sale_end"`
}
