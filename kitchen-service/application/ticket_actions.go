package application

import (
	"context"
	"time"

	"github.com/ftgo/order-system/kitchen-service/domain"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Restaurant-side ticket actions
const (
	ActionAccept         = "accept"
	ActionPreparing      = "preparing"
	ActionReadyForPickup = "ready"
	ActionPickedUp       = "pickedup"
)

// TicketActionCommand drives a ticket through the kitchen workflow
type TicketActionCommand struct {
	TicketID string    `json:"ticket_id"`
	Action   string    `json:"action"`
	ReadyBy  time.Time `json:"ready_by"`
}

// TicketResponse represents a ticket as seen by the restaurant
type TicketResponse struct {
	TicketID           models.ID               `json:"ticket_id"`
	RestaurantID       models.ID               `json:"restaurant_id"`
	State              domain.TicketState      `json:"state"`
	LineItems          []domain.TicketLineItem `json:"line_items"`
	ReadyBy            *time.Time              `json:"ready_by,omitempty"`
	AcceptTime         *time.Time              `json:"accept_time,omitempty"`
	PreparingTime      *time.Time              `json:"preparing_time,omitempty"`
	ReadyForPickupTime *time.Time              `json:"ready_for_pickup_time,omitempty"`
	PickedUpTime       *time.Time              `json:"picked_up_time,omitempty"`
	Version            int                     `json:"version"`
}

// TicketActions use case applies restaurant actions to tickets
type TicketActions struct {
	ticketRepository domain.TicketRepository
	eventPublisher   events.AggregatePublisher
	now              func() time.Time
}

// NewTicketActions creates a new TicketActions use case
func NewTicketActions(ticketRepository domain.TicketRepository, eventPublisher events.AggregatePublisher) *TicketActions {
	return &TicketActions{
		ticketRepository: ticketRepository,
		eventPublisher:   eventPublisher,
		now:              time.Now,
	}
}

// Execute applies cmd.Action to the ticket
func (uc *TicketActions) Execute(ctx context.Context, cmd *TicketActionCommand) (*TicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "ticket_action",
		trace.WithAttributes(
			attribute.String("ticket_id", cmd.TicketID),
			attribute.String("action", cmd.Action),
		),
	)
	defer span.End()

	ticketID, err := models.NewID(cmd.TicketID)
	if err != nil {
		return nil, apperrors.Validation("invalid ticket ID %q", cmd.TicketID)
	}

	ticket, err := uc.ticketRepository.FindByID(ctx, ticketID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find ticket")
	}

	now := uc.now()
	var evts []*events.Event
	switch cmd.Action {
	case ActionAccept:
		evts, err = ticket.Accept(cmd.ReadyBy, now)
	case ActionPreparing:
		evts, err = ticket.Preparing(now)
	case ActionReadyForPickup:
		evts, err = ticket.ReadyForPickup(now)
	case ActionPickedUp:
		evts, err = ticket.PickedUp(now)
	default:
		return nil, apperrors.Validation("unknown ticket action %q", cmd.Action)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := uc.ticketRepository.Update(ctx, ticket); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to update ticket")
	}
	if err := uc.eventPublisher.Publish(ctx, events.AggregateTypeTicket, ticket.ID, evts); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to publish ticket events")
	}
	ticket.ClearEvents()

	telemetry.RecordCounter(ctx, "ticket_actions_total", "Total restaurant ticket actions", 1,
		attribute.String("action", cmd.Action),
	)
	return toTicketResponse(ticket), nil
}

// GetTicket use case
type GetTicket struct {
	ticketRepository domain.TicketRepository
}

// NewGetTicket creates a new GetTicket use case
func NewGetTicket(ticketRepository domain.TicketRepository) *GetTicket {
	return &GetTicket{ticketRepository: ticketRepository}
}

// Execute gets a ticket
func (uc *GetTicket) Execute(ctx context.Context, ticketID string) (*TicketResponse, error) {
	id, err := models.NewID(ticketID)
	if err != nil {
		return nil, apperrors.Validation("invalid ticket ID %q", ticketID)
	}

	ticket, err := uc.ticketRepository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find ticket")
	}
	return toTicketResponse(ticket), nil
}

func toTicketResponse(ticket *domain.Ticket) *TicketResponse {
	return &TicketResponse{
		TicketID:           ticket.ID,
		RestaurantID:       ticket.RestaurantID,
		State:              ticket.State,
		LineItems:          ticket.LineItems,
		ReadyBy:            ticket.ReadyBy,
		AcceptTime:         ticket.AcceptTime,
		PreparingTime:      ticket.PreparingTime,
		ReadyForPickupTime: ticket.ReadyForPickupTime,
		PickedUpTime:       ticket.PickedUpTime,
		Version:            ticket.Version.Value,
	}
}
