package domain

import (
	"testing"

	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterConsumer(t *testing.T) {
	consumer, err := RegisterConsumer("  Jane Doe ")

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", consumer.Name)
	assert.Equal(t, ConsumerStatusActive, consumer.Status)
	require.Len(t, consumer.Events(), 1)

	event := consumer.Events()[0]
	assert.Equal(t, events.ConsumerCreatedEvent, event.EventType)
	var payload api.ConsumerCreated
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, consumer.ID, payload.ConsumerID)

	_, err = RegisterConsumer(" ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestConsumer_ValidateOrder(t *testing.T) {
	tests := []struct {
		name      string
		suspend   bool
		total     models.Money
		expectErr bool
	}{
		{name: "active consumer", total: models.NewMoney(1000, "USD")},
		{name: "suspended consumer", suspend: true, total: models.NewMoney(1000, "USD"), expectErr: true},
		{name: "zero total", total: models.Zero("USD"), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer, err := RegisterConsumer("Jane Doe")
			require.NoError(t, err)
			if tt.suspend {
				require.NoError(t, consumer.Suspend())
			}

			err = consumer.ValidateOrder(tt.total)

			if tt.expectErr {
				assert.True(t, apperrors.IsBusinessRule(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConsumer_SuspendTwice(t *testing.T) {
	consumer, err := RegisterConsumer("Jane Doe")
	require.NoError(t, err)
	require.NoError(t, consumer.Suspend())

	err = consumer.Suspend()

	assert.True(t, apperrors.IsStateTransition(err))
	assert.Equal(t, 2, consumer.Version.Value)
}
