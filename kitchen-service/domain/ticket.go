package domain

import (
	"context"
	"time"

	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
)

// TicketState represents the state of a kitchen ticket
type TicketState string

const (
	TicketStateCreatePending      TicketState = "CREATE_PENDING"
	TicketStateAwaitingAcceptance TicketState = "AWAITING_ACCEPTANCE"
	TicketStateAccepted           TicketState = "ACCEPTED"
	TicketStatePreparing          TicketState = "PREPARING"
	TicketStateReadyForPickup     TicketState = "READY_FOR_PICKUP"
	TicketStatePickedUp           TicketState = "PICKED_UP"
	TicketStateCancelPending      TicketState = "CANCEL_PENDING"
	TicketStateRevisionPending    TicketState = "REVISION_PENDING"
	TicketStateCancelled          TicketState = "CANCELLED"
)

// TicketLineItem is one dish to cook
type TicketLineItem struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

// Ticket aggregate root. A ticket shares the ID of the order it was created for.
type Ticket struct {
	ID            models.ID        `json:"id"`
	RestaurantID  models.ID        `json:"restaurant_id"`
	LineItems     []TicketLineItem `json:"line_items"`
	State         TicketState      `json:"state"`
	PreviousState TicketState      `json:"previous_state,omitempty"`

	ReadyBy            *time.Time `json:"ready_by,omitempty"`
	AcceptTime         *time.Time `json:"accept_time,omitempty"`
	PreparingTime      *time.Time `json:"preparing_time,omitempty"`
	ReadyForPickupTime *time.Time `json:"ready_for_pickup_time,omitempty"`
	PickedUpTime       *time.Time `json:"picked_up_time,omitempty"`

	Timestamps models.Timestamps
	Version    models.Version

	events []*events.Event
}

// CreateTicket factory method
func CreateTicket(restaurantID, ticketID models.ID, details api.TicketDetails) (*Ticket, error) {
	if ticketID.IsEmpty() {
		return nil, apperrors.Validation("ticket ID is required")
	}
	if restaurantID.IsEmpty() {
		return nil, apperrors.Validation("restaurant ID is required")
	}
	if len(details.LineItems) == 0 {
		return nil, apperrors.Validation("ticket must contain at least one line item")
	}

	lineItems := make([]TicketLineItem, len(details.LineItems))
	for i, li := range details.LineItems {
		if li.Quantity <= 0 {
			return nil, apperrors.Validation("quantity of %s must be positive", li.MenuItemID)
		}
		lineItems[i] = TicketLineItem{MenuItemID: li.MenuItemID, Name: li.Name, Quantity: li.Quantity}
	}

	ticket := &Ticket{
		ID:           ticketID,
		RestaurantID: restaurantID,
		LineItems:    lineItems,
		State:        TicketStateCreatePending,
		Timestamps:   models.NewTimestamps(),
		Version:      models.NewVersion(),
	}

	ticket.recordEvent(events.NewEvent(ticket.ID, events.TicketCreatedEvent, TicketCreatedData{
		TicketID:     ticket.ID,
		RestaurantID: ticket.RestaurantID,
		LineItems:    ticket.LineItems,
	}))
	return ticket, nil
}

// ConfirmCreate makes the ticket visible to the restaurant
func (t *Ticket) ConfirmCreate() ([]*events.Event, error) {
	if t.State != TicketStateCreatePending {
		return nil, t.illegal("confirm create")
	}
	t.transitionTo(TicketStateAwaitingAcceptance)
	return nil, nil
}

// CancelCreate drops a ticket whose order was never approved
func (t *Ticket) CancelCreate() ([]*events.Event, error) {
	if t.State != TicketStateCreatePending {
		return nil, t.illegal("cancel create")
	}
	t.transitionTo(TicketStateCancelled)
	return t.stateEvent(events.TicketCancelledEvent), nil
}

// Accept commits the restaurant to have the order ready by readyBy, which
// must lie strictly after now
func (t *Ticket) Accept(readyBy, now time.Time) ([]*events.Event, error) {
	if t.State != TicketStateAwaitingAcceptance {
		return nil, t.illegal("accept")
	}
	if !readyBy.After(now) {
		return nil, apperrors.Validation("readyBy %s must be after %s", readyBy.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	t.AcceptTime = &now
	t.ReadyBy = &readyBy
	t.transitionTo(TicketStateAccepted)
	return t.recordEvent(events.NewEvent(t.ID, events.TicketAcceptedEvent, TicketAcceptedData{
		TicketID: t.ID,
		ReadyBy:  readyBy,
	})), nil
}

// Preparing notes that cooking started
func (t *Ticket) Preparing(now time.Time) ([]*events.Event, error) {
	if t.State != TicketStateAccepted {
		return nil, t.illegal("start preparing")
	}
	t.PreparingTime = &now
	t.transitionTo(TicketStatePreparing)
	return t.stateEvent(events.TicketPreparationStartedEvent), nil
}

// ReadyForPickup notes that cooking finished
func (t *Ticket) ReadyForPickup(now time.Time) ([]*events.Event, error) {
	if t.State != TicketStatePreparing {
		return nil, t.illegal("mark ready for pickup")
	}
	t.ReadyForPickupTime = &now
	t.transitionTo(TicketStateReadyForPickup)
	return t.stateEvent(events.TicketPreparationCompletedEvent), nil
}

// PickedUp notes that the courier took the order
func (t *Ticket) PickedUp(now time.Time) ([]*events.Event, error) {
	if t.State != TicketStateReadyForPickup {
		return nil, t.illegal("mark picked up")
	}
	t.PickedUpTime = &now
	t.transitionTo(TicketStatePickedUp)
	return t.stateEvent(events.TicketPickedUpEvent), nil
}

// Cancel begins a cancellation
func (t *Ticket) Cancel() ([]*events.Event, error) {
	if !t.interruptible() {
		return nil, t.illegal("cancel")
	}
	t.PreviousState = t.State
	t.transitionTo(TicketStateCancelPending)
	return nil, nil
}

// UndoCancel restores the state the ticket had before Cancel
func (t *Ticket) UndoCancel() ([]*events.Event, error) {
	if t.State != TicketStateCancelPending {
		return nil, t.illegal("undo cancel")
	}
	t.restore()
	return nil, nil
}

// ConfirmCancel completes a cancellation
func (t *Ticket) ConfirmCancel() ([]*events.Event, error) {
	if t.State != TicketStateCancelPending {
		return nil, t.illegal("confirm cancel")
	}
	t.PreviousState = ""
	t.transitionTo(TicketStateCancelled)
	return t.stateEvent(events.TicketCancelledEvent), nil
}

// BeginRevise checks the revision applies to this ticket and holds it
func (t *Ticket) BeginRevise(revised api.RevisedQuantities) ([]*events.Event, error) {
	if !t.interruptible() {
		return nil, t.illegal("revise")
	}
	if err := t.checkRevision(revised); err != nil {
		return nil, err
	}
	t.PreviousState = t.State
	t.transitionTo(TicketStateRevisionPending)
	return nil, nil
}

// UndoBeginRevise restores the state the ticket had before BeginRevise
func (t *Ticket) UndoBeginRevise() ([]*events.Event, error) {
	if t.State != TicketStateRevisionPending {
		return nil, t.illegal("undo revise")
	}
	t.restore()
	return nil, nil
}

// ConfirmRevise applies the new quantities and restores the prior state
func (t *Ticket) ConfirmRevise(revised api.RevisedQuantities) ([]*events.Event, error) {
	if t.State != TicketStateRevisionPending {
		return nil, t.illegal("confirm revise")
	}
	if err := t.checkRevision(revised); err != nil {
		return nil, err
	}

	for i := range t.LineItems {
		if qty, ok := revised[t.LineItems[i].MenuItemID]; ok {
			t.LineItems[i].Quantity = qty
		}
	}
	t.restore()
	return t.recordEvent(events.NewEvent(t.ID, events.TicketRevisedEvent, TicketRevisedData{
		TicketID:          t.ID,
		RevisedQuantities: revised,
	})), nil
}

func (t *Ticket) checkRevision(revised api.RevisedQuantities) error {
	if len(revised) == 0 {
		return apperrors.Validation("revision must change at least one line item")
	}
	for menuItemID, qty := range revised {
		if qty <= 0 {
			return apperrors.Validation("revised quantity of %s must be positive", menuItemID)
		}
		if !t.hasLineItem(menuItemID) {
			return apperrors.Validation("ticket %s has no line item %s", t.ID, menuItemID)
		}
	}
	return nil
}

func (t *Ticket) hasLineItem(menuItemID string) bool {
	for _, li := range t.LineItems {
		if li.MenuItemID == menuItemID {
			return true
		}
	}
	return false
}

// cancel and revise are possible until cooking starts
func (t *Ticket) interruptible() bool {
	return t.State == TicketStateAwaitingAcceptance || t.State == TicketStateAccepted
}

func (t *Ticket) restore() {
	previous := t.PreviousState
	t.PreviousState = ""
	t.transitionTo(previous)
}

func (t *Ticket) transitionTo(state TicketState) {
	t.State = state
	t.Timestamps = t.Timestamps.Update()
	t.Version = t.Version.Update()
}

func (t *Ticket) illegal(transition string) error {
	return apperrors.UnsupportedTransition("ticket", transition, string(t.State))
}

func (t *Ticket) stateEvent(eventType string) []*events.Event {
	return t.recordEvent(events.NewEvent(t.ID, eventType, TicketStateData{
		TicketID: t.ID,
		State:    t.State,
	}))
}

// Events returns domain events
func (t *Ticket) Events() []*events.Event {
	return t.events
}

// ClearEvents clears domain events
func (t *Ticket) ClearEvents() {
	t.events = make([]*events.Event, 0)
}

func (t *Ticket) recordEvent(evts ...*events.Event) []*events.Event {
	t.events = append(t.events, evts...)
	return evts
}

// Event Data Structures
type TicketCreatedData struct {
	TicketID     models.ID        `json:"ticket_id"`
	RestaurantID models.ID        `json:"restaurant_id"`
	LineItems    []TicketLineItem `json:"line_items"`
}

type TicketAcceptedData struct {
	TicketID models.ID `json:"ticket_id"`
	ReadyBy  time.Time `json:"ready_by"`
}

type TicketStateData struct {
	TicketID models.ID   `json:"ticket_id"`
	State    TicketState `json:"state"`
}

type TicketRevisedData struct {
	TicketID          models.ID             `json:"ticket_id"`
	RevisedQuantities api.RevisedQuantities `json:"revised_quantities"`
}

// Repository interfaces
type TicketRepository interface {
	Save(ctx context.Context, ticket *Ticket) error
	Update(ctx context.Context, ticket *Ticket) error
	FindByID(ctx context.Context, id models.ID) (*Ticket, error)
}
