package application

import (
	"context"

	"github.com/ftgo/order-system/kitchen-service/domain"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
)

// KitchenCommandHandlers runs the kitchen-side steps of every saga
type KitchenCommandHandlers struct {
	ticketRepository domain.TicketRepository
	eventPublisher   events.AggregatePublisher
}

// NewKitchenCommandHandlers creates the handlers
func NewKitchenCommandHandlers(ticketRepository domain.TicketRepository, eventPublisher events.AggregatePublisher) *KitchenCommandHandlers {
	return &KitchenCommandHandlers{
		ticketRepository: ticketRepository,
		eventPublisher:   eventPublisher,
	}
}

// Handlers returns the dispatch table of the kitchen service channel
func (h *KitchenCommandHandlers) Handlers() messaging.CommandHandlers {
	return messaging.CommandHandlers{
		api.CreateTicketCommand:          h.createTicket,
		api.ConfirmCreateTicketCommand:   h.transition((*domain.Ticket).ConfirmCreate),
		api.CancelCreateTicketCommand:    h.transition((*domain.Ticket).CancelCreate),
		api.BeginCancelTicketCommand:     h.transition((*domain.Ticket).Cancel),
		api.UndoBeginCancelTicketCommand: h.transition((*domain.Ticket).UndoCancel),
		api.ConfirmCancelTicketCommand:   h.transition((*domain.Ticket).ConfirmCancel),
		api.BeginReviseTicketCommand:     h.revision((*domain.Ticket).BeginRevise),
		api.UndoBeginReviseTicketCommand: h.transition((*domain.Ticket).UndoBeginRevise),
		api.ConfirmReviseTicketCommand:   h.revision((*domain.Ticket).ConfirmRevise),
	}
}

func (h *KitchenCommandHandlers) createTicket(ctx context.Context, cmd *messaging.Command) (interface{}, error) {
	var payload api.CreateTicket
	if err := cmd.UnmarshalPayload(&payload); err != nil {
		return nil, apperrors.Validation("invalid %s payload: %v", cmd.Type, err)
	}

	// the ticket shares the order's ID, so an existing one was created by an
	// earlier delivery of this command
	existing, err := h.ticketRepository.FindByID(ctx, payload.OrderID)
	switch {
	case err == nil:
		if existing.RestaurantID != payload.RestaurantID {
			return nil, apperrors.BusinessRule("ticket %s already exists for restaurant %s", existing.ID, existing.RestaurantID)
		}
		return api.CreateTicketReply{TicketID: existing.ID}, nil
	case !apperrors.IsNotFound(err):
		return nil, errors.Wrap(err, "failed to find ticket")
	}

	ticket, err := domain.CreateTicket(payload.RestaurantID, payload.OrderID, payload.TicketDetails)
	if err != nil {
		return nil, err
	}
	if err := h.ticketRepository.Save(ctx, ticket); err != nil {
		return nil, errors.Wrap(err, "failed to save ticket")
	}
	if err := h.publish(ctx, ticket, ticket.Events()); err != nil {
		return nil, err
	}
	return api.CreateTicketReply{TicketID: ticket.ID}, nil
}

func (h *KitchenCommandHandlers) transition(apply func(*domain.Ticket) ([]*events.Event, error)) messaging.CommandHandlerFunc {
	return func(ctx context.Context, cmd *messaging.Command) (interface{}, error) {
		var payload api.TicketCommand
		if err := cmd.UnmarshalPayload(&payload); err != nil {
			return nil, apperrors.Validation("invalid %s payload: %v", cmd.Type, err)
		}

		ticket, err := h.load(ctx, payload.TicketID)
		if err != nil {
			return nil, err
		}
		evts, err := apply(ticket)
		if err != nil {
			return nil, err
		}
		return nil, h.save(ctx, ticket, evts)
	}
}

func (h *KitchenCommandHandlers) revision(apply func(*domain.Ticket, api.RevisedQuantities) ([]*events.Event, error)) messaging.CommandHandlerFunc {
	return func(ctx context.Context, cmd *messaging.Command) (interface{}, error) {
		var payload api.ReviseTicket
		if err := cmd.UnmarshalPayload(&payload); err != nil {
			return nil, apperrors.Validation("invalid %s payload: %v", cmd.Type, err)
		}

		ticket, err := h.load(ctx, payload.TicketID)
		if err != nil {
			return nil, err
		}
		evts, err := apply(ticket, payload.RevisedQuantities)
		if err != nil {
			return nil, err
		}
		return nil, h.save(ctx, ticket, evts)
	}
}

func (h *KitchenCommandHandlers) load(ctx context.Context, ticketID models.ID) (*domain.Ticket, error) {
	ticket, err := h.ticketRepository.FindByID(ctx, ticketID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find ticket")
	}
	return ticket, nil
}

func (h *KitchenCommandHandlers) save(ctx context.Context, ticket *domain.Ticket, evts []*events.Event) error {
	if err := h.ticketRepository.Update(ctx, ticket); err != nil {
		return errors.Wrap(err, "failed to update ticket")
	}
	return h.publish(ctx, ticket, evts)
}

func (h *KitchenCommandHandlers) publish(ctx context.Context, ticket *domain.Ticket, evts []*events.Event) error {
	if err := h.eventPublisher.Publish(ctx, events.AggregateTypeTicket, ticket.ID, evts); err != nil {
		return errors.Wrap(err, "failed to publish ticket events")
	}
	ticket.ClearEvents()
	return nil
}
