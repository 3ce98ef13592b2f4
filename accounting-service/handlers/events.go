package handlers

import (
	"context"

	"github.com/ftgo/order-system/accounting-service/application"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/events"
	"github.com/pkg/errors"
)

// ConsumerEventHandlers opens an account for every registered consumer
type ConsumerEventHandlers struct {
	openAccount *application.OpenAccount
}

// NewConsumerEventHandlers creates new consumer event handlers
func NewConsumerEventHandlers(openAccount *application.OpenAccount) *ConsumerEventHandlers {
	return &ConsumerEventHandlers{openAccount: openAccount}
}

// Handle implements the events.EventHandler interface
func (h *ConsumerEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	if event.EventType != events.ConsumerCreatedEvent {
		return nil
	}

	var payload api.ConsumerCreated
	if err := event.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "failed to unmarshal consumer created payload")
	}
	return h.openAccount.Execute(ctx, &payload)
}

// HandlerID returns the unique identifier for this event handler
func (h *ConsumerEventHandlers) HandlerID() string {
	return "accounting-service-consumer-handler"
}
