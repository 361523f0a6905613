package dto

import (
	"time"

	"github.com/spec-kit/ticket-inventory/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	EventID     string            `json:"event_id"`
	Type        domain.TicketType `json:"type"`
	Price       float64           `json:"price"`
	Quota       int               `json:"quota"`
	Description string            `json:"description"`
	SaleStart   time.Time         `json:"sale_start"`
	SaleEnd     time.Time         `json:"sale_end"`
}

// UpdateTicketRequest payload for full updates.
type UpdateTicketRequest struct {
	Type        domain.TicketType `json:"type"`
	Price       float64           `json:"price"`
	Quota       int               `json:"quota"`
	Description string            `json:"description"`
	SaleStart   time.Time         `json:"sale_start"`
	SaleEnd     time.Time         `json:"sale_end"`
}

// PurchaseRequest payload. Timestamp is optional; the server clock is used
// when absent.
type PurchaseRequest struct {
	Amount    int        `json:"amount"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// StatusUpdateRequest payload for administrative overrides.
type StatusUpdateRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketResponse is the canonical ticket representation.
type TicketResponse struct {
	ID             string              `json:"id"`
	EventID        string              `json:"event_id"`
	Type           domain.TicketType   `json:"type"`
	Price          float64             `json:"price"`
	Quota          int                 `json:"quota"`
	RemainingQuota int                 `json:"remaining_quota"`
	Description    string              `json:"description"`
	SaleStart      time.Time           `json:"sale_start"`
	SaleEnd        time.Time           `json:"sale_end"`
	Status         domain.TicketStatus `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// BatchCreateItemResponse reports a per-item batch outcome.
type BatchCreateItemResponse struct {
	Index  int             `json:"index"`
	Ticket *TicketResponse `json:"ticket,omitempty"`
	Error  string          `json:"error,omitempty"`
}
