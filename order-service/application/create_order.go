package application

import (
	"context"
	"time"

	"github.com/ftgo/order-system/order-service/domain"
	"github.com/ftgo/order-system/order-service/sagas"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/saga"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SagaStarter starts saga instances
type SagaStarter interface {
	Start(ctx context.Context, sagaType string, data interface{}) (*saga.Instance, error)
}

// CreateOrderCommand represents the command to place an order
type CreateOrderCommand struct {
	ConsumerID      string                 `json:"consumer_id"`
	RestaurantID    string                 `json:"restaurant_id"`
	DeliveryTime    time.Time              `json:"delivery_time"`
	DeliveryAddress string                 `json:"delivery_address"`
	LineItems       []api.LineItemQuantity `json:"line_items"`
}

// CreateOrderResponse represents the response after accepting an order
type CreateOrderResponse struct {
	OrderID    models.ID         `json:"order_id"`
	SagaID     models.ID         `json:"saga_id"`
	State      domain.OrderState `json:"state"`
	OrderTotal models.Money      `json:"order_total"`
}

// CreateOrder use case persists a new order and starts the CreateOrderSaga
// in the same local transaction
type CreateOrder struct {
	orderRepository      domain.OrderRepository
	restaurantRepository domain.RestaurantRepository
	eventPublisher       events.AggregatePublisher
	sagaStarter          SagaStarter
	transactor           messaging.Transactor
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(
	orderRepository domain.OrderRepository,
	restaurantRepository domain.RestaurantRepository,
	eventPublisher events.AggregatePublisher,
	sagaStarter SagaStarter,
	transactor messaging.Transactor,
) *CreateOrder {
	return &CreateOrder{
		orderRepository:      orderRepository,
		restaurantRepository: restaurantRepository,
		eventPublisher:       eventPublisher,
		sagaStarter:          sagaStarter,
		transactor:           transactor,
	}
}

// Execute places the order. The outcome is observable later on the order.
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "create_order",
		trace.WithAttributes(
			attribute.String("consumer_id", cmd.ConsumerID),
			attribute.String("restaurant_id", cmd.RestaurantID),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "order_operations_total", "Total order operations", 1,
			attribute.String("operation", "create_order"),
			attribute.String("status", status),
		)
	}()

	if err := uc.validateCommand(cmd); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid command")
	}

	restaurant, err := uc.restaurantRepository.FindByID(ctx, models.ID(cmd.RestaurantID))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find restaurant")
	}

	order, err := domain.CreateOrder(models.ID(cmd.ConsumerID), restaurant, domain.DeliveryInformation{
		DeliveryTime:    cmd.DeliveryTime,
		DeliveryAddress: cmd.DeliveryAddress,
	}, cmd.LineItems)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to create order")
	}
	span.SetAttributes(attribute.String("order_id", order.ID.String()))

	var instance *saga.Instance
	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.orderRepository.Save(ctx, order); err != nil {
			return errors.Wrap(err, "failed to save order")
		}
		if err := uc.eventPublisher.Publish(ctx, events.AggregateTypeOrder, order.ID, order.Events()); err != nil {
			return errors.Wrap(err, "failed to publish order events")
		}

		instance, err = uc.sagaStarter.Start(ctx, sagas.CreateOrderSagaType, sagas.CreateOrderSagaData{
			OrderID:       order.ID,
			ConsumerID:    order.ConsumerID,
			RestaurantID:  order.RestaurantID,
			OrderTotal:    order.OrderTotal(),
			TicketDetails: order.TicketDetails(),
		})
		return errors.Wrap(err, "failed to start create order saga")
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	order.ClearEvents()

	status = "success"
	return &CreateOrderResponse{
		OrderID:    order.ID,
		SagaID:     instance.ID,
		State:      order.State,
		OrderTotal: order.OrderTotal(),
	}, nil
}

func (uc *CreateOrder) validateCommand(cmd *CreateOrderCommand) error {
	if _, err := models.NewID(cmd.ConsumerID); err != nil {
		return apperrors.Validation("invalid consumer ID %q", cmd.ConsumerID)
	}
	if _, err := models.NewID(cmd.RestaurantID); err != nil {
		return apperrors.Validation("invalid restaurant ID %q", cmd.RestaurantID)
	}
	if len(cmd.LineItems) == 0 {
		return apperrors.Validation("at least one line item is required")
	}
	return nil
}
