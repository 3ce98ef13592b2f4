package application

import (
	"context"

	"github.com/ftgo/order-system/order-service/domain"
	"github.com/ftgo/order-system/order-service/sagas"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CancelOrderCommand represents the command to cancel an order
type CancelOrderCommand struct {
	OrderID string `json:"order_id"`
}

// SagaStartedResponse is returned by every use case that only starts a saga
type SagaStartedResponse struct {
	OrderID models.ID `json:"order_id"`
	SagaID  models.ID `json:"saga_id"`
}

// CancelOrder use case starts the CancelOrderSaga. Whether the order can be
// cancelled is decided by the order itself when the saga asks it to.
type CancelOrder struct {
	orderRepository domain.OrderRepository
	sagaStarter     SagaStarter
}

// NewCancelOrder creates a new CancelOrder use case
func NewCancelOrder(orderRepository domain.OrderRepository, sagaStarter SagaStarter) *CancelOrder {
	return &CancelOrder{
		orderRepository: orderRepository,
		sagaStarter:     sagaStarter,
	}
}

// Execute starts the cancellation
func (uc *CancelOrder) Execute(ctx context.Context, cmd *CancelOrderCommand) (*SagaStartedResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "cancel_order",
		trace.WithAttributes(attribute.String("order_id", cmd.OrderID)),
	)
	defer span.End()

	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Validation("invalid order ID %q", cmd.OrderID)
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find order")
	}

	instance, err := uc.sagaStarter.Start(ctx, sagas.CancelOrderSagaType, sagas.CancelOrderSagaData{
		OrderID:      order.ID,
		ConsumerID:   order.ConsumerID,
		RestaurantID: order.RestaurantID,
		OrderTotal:   order.OrderTotal(),
	})
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to start cancel order saga")
	}

	telemetry.RecordCounter(ctx, "order_operations_total", "Total order operations", 1,
		attribute.String("operation", "cancel_order"),
		attribute.String("status", "success"),
	)
	return &SagaStartedResponse{OrderID: order.ID, SagaID: instance.ID}, nil
}
