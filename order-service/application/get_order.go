package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ftgo/order-system/order-service/domain"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/saga"
	"github.com/pkg/errors"
)

// GetOrderQuery represents the query to get an order
type GetOrderQuery struct {
	OrderID string `json:"order_id"`
}

// GetOrderResponse represents an order as seen by API clients
type GetOrderResponse struct {
	OrderID             models.ID                  `json:"order_id"`
	ConsumerID          models.ID                  `json:"consumer_id"`
	RestaurantID        models.ID                  `json:"restaurant_id"`
	State               domain.OrderState          `json:"state"`
	LineItems           []domain.OrderLineItem     `json:"line_items"`
	OrderTotal          models.Money               `json:"order_total"`
	DeliveryInformation domain.DeliveryInformation `json:"delivery_information"`
	Version             int                        `json:"version"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

// GetOrder use case
type GetOrder struct {
	orderRepository domain.OrderRepository
}

// NewGetOrder creates a new GetOrder use case
func NewGetOrder(orderRepository domain.OrderRepository) *GetOrder {
	return &GetOrder{orderRepository: orderRepository}
}

// Execute gets an order
func (uc *GetOrder) Execute(ctx context.Context, query *GetOrderQuery) (*GetOrderResponse, error) {
	orderID, err := models.NewID(query.OrderID)
	if err != nil {
		return nil, apperrors.Validation("invalid order ID %q", query.OrderID)
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	return &GetOrderResponse{
		OrderID:             order.ID,
		ConsumerID:          order.ConsumerID,
		RestaurantID:        order.RestaurantID,
		State:               order.State,
		LineItems:           order.LineItems,
		OrderTotal:          order.OrderTotal(),
		DeliveryInformation: order.DeliveryInformation,
		Version:             order.Version.Value,
		UpdatedAt:           order.Timestamps.UpdatedAt,
	}, nil
}

// SagaReader reads saga instances for the operational API
type SagaReader interface {
	Get(ctx context.Context, id models.ID) (*saga.Instance, error)
	Stuck(ctx context.Context) ([]*saga.Instance, error)
}

// SagaResponse represents a saga instance as seen by operators
type SagaResponse struct {
	SagaID        models.ID           `json:"saga_id"`
	SagaType      string              `json:"saga_type"`
	StepIndex     int                 `json:"step_index"`
	Direction     messaging.Direction `json:"direction"`
	Status        saga.SagaStatus     `json:"status"`
	FailureReason string              `json:"failure_reason,omitempty"`
	Data          json.RawMessage     `json:"data"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// GetSaga use case serves single instances and the list of STUCK ones
type GetSaga struct {
	sagas SagaReader
}

// NewGetSaga creates a new GetSaga use case
func NewGetSaga(sagas SagaReader) *GetSaga {
	return &GetSaga{sagas: sagas}
}

// Execute gets one saga instance
func (uc *GetSaga) Execute(ctx context.Context, sagaID string) (*SagaResponse, error) {
	id, err := models.NewID(sagaID)
	if err != nil {
		return nil, apperrors.Validation("invalid saga ID %q", sagaID)
	}

	instance, err := uc.sagas.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find saga")
	}
	return toSagaResponse(instance), nil
}

// Stuck lists the instances whose compensation failed
func (uc *GetSaga) Stuck(ctx context.Context) ([]*SagaResponse, error) {
	instances, err := uc.sagas.Stuck(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stuck sagas")
	}

	responses := make([]*SagaResponse, len(instances))
	for i, instance := range instances {
		responses[i] = toSagaResponse(instance)
	}
	return responses, nil
}

func toSagaResponse(instance *saga.Instance) *SagaResponse {
	return &SagaResponse{
		SagaID:        instance.ID,
		SagaType:      instance.SagaType,
		StepIndex:     instance.StepIndex,
		Direction:     instance.Direction,
		Status:        instance.Status,
		FailureReason: instance.FailureReason,
		Data:          instance.Data,
		CreatedAt:     instance.Timestamps.CreatedAt,
		UpdatedAt:     instance.Timestamps.UpdatedAt,
	}
}
