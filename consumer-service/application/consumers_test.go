package application

import (
	"context"
	"testing"

	"github.com/ftgo/order-system/consumer-service/domain"
	"github.com/ftgo/order-system/consumer-service/mocks"
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

var validConsumerID = models.ID("550e8400-e29b-41d4-a716-446655440010")

func consumerWithStatus(status domain.ConsumerStatus) *domain.Consumer {
	return &domain.Consumer{
		ID:         validConsumerID,
		Name:       "Ann",
		Status:     status,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}
}

func TestRegisterConsumer_Execute(t *testing.T) {
	tests := []struct {
		name          string
		command       RegisterConsumerCommand
		setupMocks    func(*mocks.MockConsumerRepository, *mocks.MockAggregatePublisher)
		validateError func(error) bool
	}{
		{
			name:    "registers and announces the consumer",
			command: RegisterConsumerCommand{Name: "  Ann  "},
			setupMocks: func(consumers *mocks.MockConsumerRepository, publisher *mocks.MockAggregatePublisher) {
				consumers.EXPECT().Save(mock.Anything, mock.MatchedBy(func(c *domain.Consumer) bool {
					return c.Name == "Ann" && c.Status == domain.ConsumerStatusActive
				})).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, events.AggregateTypeConsumer, mock.Anything, mock.MatchedBy(func(evts []*events.Event) bool {
					return len(evts) == 1 && evts[0].EventType == events.ConsumerCreatedEvent
				})).Return(nil).Once()
			},
		},
		{
			name:          "blank name",
			command:       RegisterConsumerCommand{Name: " "},
			setupMocks:    func(*mocks.MockConsumerRepository, *mocks.MockAggregatePublisher) {},
			validateError: apperrors.IsValidation,
		},
		{
			name:    "save error",
			command: RegisterConsumerCommand{Name: "Ann"},
			setupMocks: func(consumers *mocks.MockConsumerRepository, _ *mocks.MockAggregatePublisher) {
				consumers.EXPECT().Save(mock.Anything, mock.Anything).Return(errors.New("database error")).Once()
			},
			validateError: func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumers := mocks.NewMockConsumerRepository(t)
			publisher := mocks.NewMockAggregatePublisher(t)
			tt.setupMocks(consumers, publisher)

			cmd := tt.command
			result, err := NewRegisterConsumer(consumers, publisher, messaging.NoopTransactor{}).Execute(context.Background(), &cmd)

			if tt.validateError != nil {
				require.Error(t, err)
				assert.True(t, tt.validateError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ann", result.Name)
			assert.False(t, result.ConsumerID.IsEmpty())
		})
	}
}

func TestSuspendConsumer_Execute(t *testing.T) {
	consumers := mocks.NewMockConsumerRepository(t)
	consumers.EXPECT().FindByID(mock.Anything, validConsumerID).Return(consumerWithStatus(domain.ConsumerStatusActive), nil).Once()
	consumers.EXPECT().Update(mock.Anything, mock.MatchedBy(func(c *domain.Consumer) bool {
		return c.Status == domain.ConsumerStatusSuspended && c.Version.Value == 2
	})).Return(nil).Once()

	result, err := NewSuspendConsumer(consumers).Execute(context.Background(), validConsumerID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ConsumerStatusSuspended, result.Status)

	consumers.EXPECT().FindByID(mock.Anything, validConsumerID).Return(consumerWithStatus(domain.ConsumerStatusSuspended), nil).Once()
	_, err = NewSuspendConsumer(consumers).Execute(context.Background(), validConsumerID.String())
	assert.True(t, apperrors.IsStateTransition(err))
}

func TestGetConsumer_Execute(t *testing.T) {
	consumers := mocks.NewMockConsumerRepository(t)
	consumers.EXPECT().FindByID(mock.Anything, validConsumerID).
		Return(nil, apperrors.NotFound("consumer", validConsumerID.String())).Once()

	_, err := NewGetConsumer(consumers).Execute(context.Background(), validConsumerID.String())
	assert.True(t, apperrors.IsNotFound(err))

	_, err = NewGetConsumer(consumers).Execute(context.Background(), "42")
	assert.True(t, apperrors.IsValidation(err))
}

func TestConsumerCommandHandlers_ValidateOrder(t *testing.T) {
	tests := []struct {
		name          string
		consumer      *domain.Consumer
		findErr       error
		total         int64
		validateError func(error) bool
	}{
		{name: "active consumer", consumer: consumerWithStatus(domain.ConsumerStatusActive), total: 6170},
		{name: "suspended consumer", consumer: consumerWithStatus(domain.ConsumerStatusSuspended), total: 6170, validateError: apperrors.IsBusinessRule},
		{name: "zero total", consumer: consumerWithStatus(domain.ConsumerStatusActive), total: 0, validateError: apperrors.IsBusinessRule},
		{name: "unknown consumer", findErr: apperrors.NotFound("consumer", validConsumerID.String()), total: 6170, validateError: apperrors.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumers := mocks.NewMockConsumerRepository(t)
			consumers.EXPECT().FindByID(mock.Anything, validConsumerID).Return(tt.consumer, tt.findErr).Once()

			handlers := NewConsumerCommandHandlers(consumers).Handlers()
			result, err := handlers[api.ValidateOrderByConsumerCommand](context.Background(),
				messaging.NewCommand(api.ConsumerServiceChannel, api.ValidateOrderByConsumerCommand, api.ValidateOrderByConsumer{
					ConsumerID: validConsumerID,
					OrderID:    models.GenerateUUID(),
					OrderTotal: models.NewMoney(tt.total, "USD"),
				}))

			assert.Nil(t, result)
			if tt.validateError != nil {
				require.Error(t, err)
				assert.True(t, tt.validateError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
