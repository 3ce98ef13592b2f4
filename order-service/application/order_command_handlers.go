package application

import (
	"context"

	"github.com/ftgo/order-system/order-service/domain"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
)

// OrderCommandHandlers runs the order-side steps of every saga
type OrderCommandHandlers struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.AggregatePublisher
	orderMinimum    int64
}

// NewOrderCommandHandlers creates the handlers. orderMinimum is the total a
// revision must stay below.
func NewOrderCommandHandlers(orderRepository domain.OrderRepository, eventPublisher events.AggregatePublisher, orderMinimum int64) *OrderCommandHandlers {
	return &OrderCommandHandlers{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		orderMinimum:    orderMinimum,
	}
}

// Handlers returns the dispatch table of the order service channel
func (h *OrderCommandHandlers) Handlers() messaging.CommandHandlers {
	return messaging.CommandHandlers{
		api.ApproveOrderCommand:         h.transition((*domain.Order).NoteApproved),
		api.RejectOrderCommand:          h.transition((*domain.Order).NoteRejected),
		api.BeginCancelOrderCommand:     h.transition((*domain.Order).Cancel),
		api.UndoBeginCancelOrderCommand: h.transition((*domain.Order).UndoPendingCancel),
		api.ConfirmCancelOrderCommand:   h.transition((*domain.Order).NoteCancelled),
		api.BeginReviseOrderCommand:     h.beginRevise,
		api.UndoBeginReviseOrderCommand: h.transition((*domain.Order).RejectRevision),
		api.ConfirmReviseOrderCommand:   h.confirmRevise,
	}
}

func (h *OrderCommandHandlers) transition(apply func(*domain.Order) ([]*events.Event, error)) messaging.CommandHandlerFunc {
	return func(ctx context.Context, cmd *messaging.Command) (interface{}, error) {
		var payload api.OrderCommand
		if err := cmd.UnmarshalPayload(&payload); err != nil {
			return nil, apperrors.Validation("invalid %s payload: %v", cmd.Type, err)
		}

		order, err := h.load(ctx, payload.OrderID)
		if err != nil {
			return nil, err
		}
		evts, err := apply(order)
		if err != nil {
			return nil, err
		}
		return nil, h.save(ctx, order, evts)
	}
}

func (h *OrderCommandHandlers) beginRevise(ctx context.Context, cmd *messaging.Command) (interface{}, error) {
	var payload api.ReviseOrder
	if err := cmd.UnmarshalPayload(&payload); err != nil {
		return nil, apperrors.Validation("invalid %s payload: %v", cmd.Type, err)
	}

	order, err := h.load(ctx, payload.OrderID)
	if err != nil {
		return nil, err
	}
	change, evts, err := order.Revise(domain.OrderRevision{RevisedQuantities: payload.RevisedQuantities}, h.orderMinimum)
	if err != nil {
		return nil, err
	}
	if err := h.save(ctx, order, evts); err != nil {
		return nil, err
	}
	return api.BeginReviseOrderReply{RevisedOrderTotal: change.NewOrderTotal}, nil
}

func (h *OrderCommandHandlers) confirmRevise(ctx context.Context, cmd *messaging.Command) (interface{}, error) {
	var payload api.ReviseOrder
	if err := cmd.UnmarshalPayload(&payload); err != nil {
		return nil, apperrors.Validation("invalid %s payload: %v", cmd.Type, err)
	}

	order, err := h.load(ctx, payload.OrderID)
	if err != nil {
		return nil, err
	}
	evts, err := order.ConfirmRevision(domain.OrderRevision{RevisedQuantities: payload.RevisedQuantities})
	if err != nil {
		return nil, err
	}
	return nil, h.save(ctx, order, evts)
}

func (h *OrderCommandHandlers) load(ctx context.Context, orderID models.ID) (*domain.Order, error) {
	order, err := h.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	return order, nil
}

func (h *OrderCommandHandlers) save(ctx context.Context, order *domain.Order, evts []*events.Event) error {
	if err := h.orderRepository.Update(ctx, order); err != nil {
		return errors.Wrap(err, "failed to update order")
	}
	if err := h.eventPublisher.Publish(ctx, events.AggregateTypeOrder, order.ID, evts); err != nil {
		return errors.Wrap(err, "failed to publish order events")
	}
	order.ClearEvents()
	return nil
}
