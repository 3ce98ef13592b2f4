package application

import (
	"context"
	"math"
	"testing"

	"github.com/ftgo/order-system/order-service/domain"
	"github.com/ftgo/order-system/order-service/mocks"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func orderInState(state domain.OrderState) *domain.Order {
	return &domain.Order{
		ID:           validOrderID,
		ConsumerID:   validConsumerID,
		RestaurantID: validRestaurantID,
		State:        state,
		LineItems: []domain.OrderLineItem{
			{MenuItemID: "chicken-vindaloo", Name: "Chicken Vindaloo", Price: models.NewMoney(1234, "USD"), Quantity: 3},
		},
		Timestamps: models.NewTimestamps(),
		Version:    models.Version{Value: 2},
	}
}

func TestOrderCommandHandlers_Transitions(t *testing.T) {
	tests := []struct {
		name          string
		commandType   string
		payload       interface{}
		from          domain.OrderState
		to            domain.OrderState
		expectedEvent string
	}{
		{name: "approve", commandType: api.ApproveOrderCommand, from: domain.OrderStateApprovalPending, to: domain.OrderStateApproved, expectedEvent: events.OrderAuthorizedEvent},
		{name: "reject", commandType: api.RejectOrderCommand, from: domain.OrderStateApprovalPending, to: domain.OrderStateRejected, expectedEvent: events.OrderRejectedEvent},
		{name: "begin cancel", commandType: api.BeginCancelOrderCommand, from: domain.OrderStateApproved, to: domain.OrderStateCancelPending},
		{name: "undo begin cancel", commandType: api.UndoBeginCancelOrderCommand, from: domain.OrderStateCancelPending, to: domain.OrderStateApproved},
		{name: "confirm cancel", commandType: api.ConfirmCancelOrderCommand, from: domain.OrderStateCancelPending, to: domain.OrderStateCancelled, expectedEvent: events.OrderCancelledEvent},
		{name: "undo begin revise", commandType: api.UndoBeginReviseOrderCommand, from: domain.OrderStateRevisionPending, to: domain.OrderStateApproved, expectedEvent: events.OrderRevisionRejectedEvent},
		{
			name:          "confirm revise",
			commandType:   api.ConfirmReviseOrderCommand,
			payload:       api.ReviseOrder{OrderID: validOrderID, RevisedQuantities: api.RevisedQuantities{"chicken-vindaloo": 2}},
			from:          domain.OrderStateRevisionPending,
			to:            domain.OrderStateApproved,
			expectedEvent: events.OrderRevisedEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := mocks.NewMockOrderRepository(t)
			publisher := mocks.NewMockAggregatePublisher(t)
			order := orderInState(tt.from)

			orders.EXPECT().FindByID(mock.Anything, validOrderID).Return(order, nil).Once()
			orders.EXPECT().Update(mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
				return o.State == tt.to && o.Version.Value == 3
			})).Return(nil).Once()
			publisher.EXPECT().Publish(mock.Anything, events.AggregateTypeOrder, validOrderID, mock.MatchedBy(func(evts []*events.Event) bool {
				if tt.expectedEvent == "" {
					return len(evts) == 0
				}
				return len(evts) == 1 && evts[0].EventType == tt.expectedEvent
			})).Return(nil).Once()

			payload := tt.payload
			if payload == nil {
				payload = api.OrderCommand{OrderID: validOrderID}
			}
			handlers := NewOrderCommandHandlers(orders, publisher, math.MaxInt64).Handlers()

			result, err := handlers[tt.commandType](context.Background(), messaging.NewCommand(api.OrderServiceChannel, tt.commandType, payload))

			require.NoError(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.to, order.State)
		})
	}
}

func TestOrderCommandHandlers_BeginRevise(t *testing.T) {
	t.Run("replies with the revised total", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository(t)
		publisher := mocks.NewMockAggregatePublisher(t)
		order := orderInState(domain.OrderStateApproved)
		orders.EXPECT().FindByID(mock.Anything, validOrderID).Return(order, nil).Once()
		orders.EXPECT().Update(mock.Anything, order).Return(nil).Once()
		publisher.EXPECT().Publish(mock.Anything, events.AggregateTypeOrder, validOrderID, mock.Anything).Return(nil).Once()

		handlers := NewOrderCommandHandlers(orders, publisher, math.MaxInt64).Handlers()
		result, err := handlers[api.BeginReviseOrderCommand](context.Background(), reviseCommand())

		require.NoError(t, err)
		reply, ok := result.(api.BeginReviseOrderReply)
		require.True(t, ok)
		assert.Equal(t, models.NewMoney(2*1234, "USD"), reply.RevisedOrderTotal)
		assert.Equal(t, domain.OrderStateRevisionPending, order.State)
	})

	t.Run("revision reaching the order minimum fails without saving", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository(t)
		publisher := mocks.NewMockAggregatePublisher(t)
		order := orderInState(domain.OrderStateApproved)
		orders.EXPECT().FindByID(mock.Anything, validOrderID).Return(order, nil).Once()

		handlers := NewOrderCommandHandlers(orders, publisher, 2*1234).Handlers()
		_, err := handlers[api.BeginReviseOrderCommand](context.Background(), reviseCommand())

		assert.True(t, apperrors.IsBusinessRule(err))
		assert.Equal(t, domain.OrderStateApproved, order.State)
	})
}

func reviseCommand() *messaging.Command {
	return messaging.NewCommand(api.OrderServiceChannel, api.BeginReviseOrderCommand, api.ReviseOrder{
		OrderID:           validOrderID,
		RevisedQuantities: api.RevisedQuantities{"chicken-vindaloo": 2},
	})
}

func TestOrderCommandHandlers_Failures(t *testing.T) {
	tests := []struct {
		name          string
		commandType   string
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockAggregatePublisher)
		validateError func(error) bool
	}{
		{
			name:        "cancel while revision pending",
			commandType: api.BeginCancelOrderCommand,
			setupMocks: func(orders *mocks.MockOrderRepository, publisher *mocks.MockAggregatePublisher) {
				orders.EXPECT().FindByID(mock.Anything, validOrderID).Return(orderInState(domain.OrderStateRevisionPending), nil).Once()
			},
			validateError: apperrors.IsStateTransition,
		},
		{
			name:        "unknown order",
			commandType: api.ApproveOrderCommand,
			setupMocks: func(orders *mocks.MockOrderRepository, publisher *mocks.MockAggregatePublisher) {
				orders.EXPECT().FindByID(mock.Anything, validOrderID).
					Return(nil, apperrors.NotFound("order", validOrderID.String())).Once()
			},
			validateError: apperrors.IsNotFound,
		},
		{
			name:        "concurrent update",
			commandType: api.ApproveOrderCommand,
			setupMocks: func(orders *mocks.MockOrderRepository, publisher *mocks.MockAggregatePublisher) {
				orders.EXPECT().FindByID(mock.Anything, validOrderID).Return(orderInState(domain.OrderStateApprovalPending), nil).Once()
				orders.EXPECT().Update(mock.Anything, mock.Anything).
					Return(errors.Wrap(apperrors.ErrOptimisticLock, "order")).Once()
			},
			validateError: apperrors.IsOptimisticLock,
		},
		{
			name:        "publisher error",
			commandType: api.ApproveOrderCommand,
			setupMocks: func(orders *mocks.MockOrderRepository, publisher *mocks.MockAggregatePublisher) {
				orders.EXPECT().FindByID(mock.Anything, validOrderID).Return(orderInState(domain.OrderStateApprovalPending), nil).Once()
				orders.EXPECT().Update(mock.Anything, mock.Anything).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, events.AggregateTypeOrder, validOrderID, mock.Anything).
					Return(errors.New("outbox error")).Once()
			},
			validateError: func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := mocks.NewMockOrderRepository(t)
			publisher := mocks.NewMockAggregatePublisher(t)
			tt.setupMocks(orders, publisher)

			handlers := NewOrderCommandHandlers(orders, publisher, math.MaxInt64).Handlers()
			_, err := handlers[tt.commandType](context.Background(),
				messaging.NewCommand(api.OrderServiceChannel, tt.commandType, api.OrderCommand{OrderID: validOrderID}))

			require.Error(t, err)
			assert.True(t, tt.validateError(err))
		})
	}
}

func TestOrderCommandHandlers_DispatchedFailureReply(t *testing.T) {
	orders := mocks.NewMockOrderRepository(t)
	publisher := mocks.NewMockAggregatePublisher(t)
	orders.EXPECT().FindByID(mock.Anything, validOrderID).Return(orderInState(domain.OrderStateRevisionPending), nil).Once()

	bus := messaging.NewBus()

	dispatcher := messaging.NewCommandDispatcher("order-commands",
		NewOrderCommandHandlers(orders, publisher, math.MaxInt64).Handlers(),
		messaging.NewProducer(bus))

	cmd := messaging.NewCommand(api.OrderServiceChannel, api.BeginCancelOrderCommand, api.OrderCommand{OrderID: validOrderID})
	cmd.ReplyChannel = "CancelOrderSaga.reply"
	cmd.Correlation = messaging.CorrelationKey{SagaID: validSagaID, SagaType: "CancelOrderSaga", StepIndex: 0, Direction: messaging.DirectionForward}

	require.NoError(t, dispatcher.Dispatch(context.Background(), cmd))

	replies := bus.Replies("CancelOrderSaga.reply")
	require.Len(t, replies, 1)
	assert.Equal(t, messaging.OutcomeFailure, replies[0].Outcome)
	assert.Contains(t, replies[0].Reason, "cannot cancel in state REVISION_PENDING")
	assert.Equal(t, cmd.Correlation, replies[0].Correlation)
}
