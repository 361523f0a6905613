package domain

import (
	"time"

	"github.com/google/uuid"
)

// DraftStage marks construction progress in a TicketDraft. It is distinct
// from TicketStatus: one tracks builder progress, the other the business
// lifecycle of a built ticket.
type DraftStage string

const (
	DraftStageEmpty          DraftStage = "EMPTY"
	DraftStageTypeSet        DraftStage = "TYPE_SET"
	DraftStagePriceSet       DraftStage = "PRICE_SET"
	DraftStageQuotaSet       DraftStage = "QUOTA_SET"
	DraftStageDescriptionSet DraftStage = "DESCRIPTION_SET"
	DraftStageWindowSet      DraftStage = "WINDOW_SET"
	DraftStageEventSet       DraftStage = "EVENT_SET"
)

// TicketDraft accumulates required ticket fields in canonical order:
// type, price, quota, description, sales window, event. Each setter
// validates its argument and advances the stage by exactly one step;
// setters called out of order are rejected and store nothing. A draft is
// single-writer and consumed by a successful Build.
type TicketDraft struct {
	ticketType  TicketType
	price       float64
	quota       int
	description string
	saleStart   time.Time
	saleEnd     time.Time
	eventID     string

	stage    DraftStage
	consumed bool
}

// NewTicketDraft returns an empty draft.
func NewTicketDraft() *TicketDraft {
	return &TicketDraft{stage: DraftStageEmpty}
}

// Stage returns the current construction stage.
func (d *TicketDraft) Stage() DraftStage {
	return d.stage
}

func (d *TicketDraft) advance(from, to DraftStage) error {
	if d.consumed {
		return ErrDraftConsumed
	}
	if d.stage != from {
		return ErrDraftOrder
	}
	d.stage = to
	return nil
}

// SetType records the ticket type. First step.
func (d *TicketDraft) SetType(t TicketType) error {
	if !ValidType(t) {
		return NewFieldError("type", "unknown ticket type "+string(t))
	}
	if err := d.advance(DraftStageEmpty, DraftStageTypeSet); err != nil {
		return err
	}
	d.ticketType = t
	return nil
}

// SetPrice records the unit price. Follows SetType.
func (d *TicketDraft) SetPrice(price float64) error {
	if price < 0 {
		return NewFieldError("price", "cannot be negative")
	}
	if err := d.advance(DraftStageTypeSet, DraftStagePriceSet); err != nil {
		return err
	}
	d.price = price
	return nil
}

// SetQuota records the total sellable units. Follows SetPrice.
func (d *TicketDraft) SetQuota(quota int) error {
	if quota <= 0 {
		return NewFieldError("quota", "must be positive")
	}
	if err := d.advance(DraftStagePriceSet, DraftStageQuotaSet); err != nil {
		return err
	}
	d.quota = quota
	return nil
}

// SetDescription records the optional description. Follows SetQuota; an
// empty description is accepted but the step itself is still required.
func (d *TicketDraft) SetDescription(description string) error {
	if err := d.advance(DraftStageQuotaSet, DraftStageDescriptionSet); err != nil {
		return err
	}
	d.description = description
	return nil
}

// SetSalesWindow records the purchase window. Follows SetDescription.
func (d *TicketDraft) SetSalesWindow(start, end time.Time) error {
	if !end.After(start) {
		return NewFieldError("sale_window", "sale end must be after sale start")
	}
	if err := d.advance(DraftStageDescriptionSet, DraftStageWindowSet); err != nil {
		return err
	}
	d.saleStart = start
	d.saleEnd = end
	return nil
}

// SetEventID records the owning event reference. Final step.
func (d *TicketDraft) SetEventID(eventID string) error {
	if eventID == "" {
		return NewFieldError("event_id", "required")
	}
	if err := d.advance(DraftStageWindowSet, DraftStageEventSet); err != nil {
		return err
	}
	d.eventID = eventID
	return nil
}

// IsReady reports whether every required field has been set.
func (d *TicketDraft) IsReady() bool {
	return !d.consumed && d.stage == DraftStageEventSet
}

// Build produces an AVAILABLE ticket with a freshly minted id and the full
// quota remaining. The draft is consumed and cannot be built twice.
func (d *TicketDraft) Build(now time.Time) (*Ticket, error) {
	if d.consumed {
		return nil, ErrDraftConsumed
	}
	if !d.IsReady() {
		return nil, ErrDraftIncomplete
	}
	d.consumed = true
	return &Ticket{
		ID:             uuid.NewString(),
		EventID:        d.eventID,
		Type:           d.ticketType,
		Price:          d.price,
		Quota:          d.quota,
		RemainingQuota: d.quota,
		Description:    d.description,
		SaleStart:      d.saleStart,
		SaleEnd:        d.saleEnd,
		Status:         TicketStatusAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
