package handlers

import (
	"context"

	"github.com/ftgo/order-system/order-service/application"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/events"
	"github.com/pkg/errors"
)

// RestaurantEventHandlers replicates the restaurant service events
type RestaurantEventHandlers struct {
	replicateRestaurant *application.ReplicateRestaurant
}

// NewRestaurantEventHandlers creates new restaurant event handlers
func NewRestaurantEventHandlers(replicateRestaurant *application.ReplicateRestaurant) *RestaurantEventHandlers {
	return &RestaurantEventHandlers{replicateRestaurant: replicateRestaurant}
}

// Handle implements the events.EventHandler interface
func (h *RestaurantEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.RestaurantCreatedEvent:
		var payload api.RestaurantCreated
		if err := event.UnmarshalPayload(&payload); err != nil {
			return errors.Wrap(err, "failed to unmarshal restaurant created payload")
		}
		return h.replicateRestaurant.Created(ctx, &payload)
	case events.RestaurantMenuRevisedEvent:
		var payload api.RestaurantMenuRevised
		if err := event.UnmarshalPayload(&payload); err != nil {
			return errors.Wrap(err, "failed to unmarshal menu revised payload")
		}
		return h.replicateRestaurant.MenuRevised(ctx, &payload)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *RestaurantEventHandlers) HandlerID() string {
	return "order-service-restaurant-handler"
}
