package infrastructure

import (
	"context"
	"sync"

	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/logger"
	"github.com/pkg/errors"
)

// ChannelRouter fans the envelopes of one service queue out to the
// handlers subscribed to their channel
type ChannelRouter struct {
	id       string
	mu       sync.RWMutex
	handlers map[string][]events.EventHandler
	logger   *logger.Logger
}

// NewChannelRouter creates a new ChannelRouter
func NewChannelRouter(id string, log *logger.Logger) *ChannelRouter {
	return &ChannelRouter{
		id:       id,
		handlers: make(map[string][]events.EventHandler),
		logger:   log,
	}
}

// Subscribe registers handler for channel
func (r *ChannelRouter) Subscribe(channel string, handler events.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[channel] = append(r.handlers[channel], handler)
}

// HandlerID implements EventHandler
func (r *ChannelRouter) HandlerID() string {
	return r.id
}

// Handle implements EventHandler. An envelope on a channel nobody subscribed
// to is acknowledged and dropped.
func (r *ChannelRouter) Handle(ctx context.Context, event *events.Event) error {
	r.mu.RLock()
	handlers := r.handlers[event.Channel()]
	r.mu.RUnlock()

	if len(handlers) == 0 {
		r.logger.Debug("no handler for channel", "channel", event.Channel(), "topic", event.Topic.String())
		return nil
	}

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			return errors.Wrapf(err, "channel %s", event.Channel())
		}
	}
	return nil
}
