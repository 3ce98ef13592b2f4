package application

import (
	"context"

	"github.com/ftgo/order-system/order-service/domain"
	"github.com/ftgo/order-system/order-service/sagas"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ReviseOrderCommand represents the command to change line item quantities
type ReviseOrderCommand struct {
	OrderID           string                `json:"order_id"`
	RevisedQuantities api.RevisedQuantities `json:"revised_quantities"`
}

// ReviseOrder use case starts the ReviseOrderSaga
type ReviseOrder struct {
	orderRepository domain.OrderRepository
	sagaStarter     SagaStarter
}

// NewReviseOrder creates a new ReviseOrder use case
func NewReviseOrder(orderRepository domain.OrderRepository, sagaStarter SagaStarter) *ReviseOrder {
	return &ReviseOrder{
		orderRepository: orderRepository,
		sagaStarter:     sagaStarter,
	}
}

// Execute starts the revision
func (uc *ReviseOrder) Execute(ctx context.Context, cmd *ReviseOrderCommand) (*SagaStartedResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "revise_order",
		trace.WithAttributes(attribute.String("order_id", cmd.OrderID)),
	)
	defer span.End()

	if err := uc.validateCommand(cmd); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid command")
	}

	order, err := uc.orderRepository.FindByID(ctx, models.ID(cmd.OrderID))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find order")
	}

	instance, err := uc.sagaStarter.Start(ctx, sagas.ReviseOrderSagaType, sagas.ReviseOrderSagaData{
		OrderID:           order.ID,
		ConsumerID:        order.ConsumerID,
		RestaurantID:      order.RestaurantID,
		RevisedQuantities: cmd.RevisedQuantities,
	})
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to start revise order saga")
	}

	telemetry.RecordCounter(ctx, "order_operations_total", "Total order operations", 1,
		attribute.String("operation", "revise_order"),
		attribute.String("status", "success"),
	)
	return &SagaStartedResponse{OrderID: order.ID, SagaID: instance.ID}, nil
}

func (uc *ReviseOrder) validateCommand(cmd *ReviseOrderCommand) error {
	if _, err := models.NewID(cmd.OrderID); err != nil {
		return apperrors.Validation("invalid order ID %q", cmd.OrderID)
	}
	if len(cmd.RevisedQuantities) == 0 {
		return apperrors.Validation("revised quantities are required")
	}
	for menuItemID, qty := range cmd.RevisedQuantities {
		if qty <= 0 {
			return apperrors.Validation("revised quantity of %s must be positive", menuItemID)
		}
	}
	return nil
}
