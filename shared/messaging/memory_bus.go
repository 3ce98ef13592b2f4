package messaging

import (
	"context"
	"sync"

	"github.com/ftgo/order-system/shared/events"
)

// Bus is an in-process transport. Published envelopes are queued and
// delivered in publication order to the handlers subscribed to their
// channel; a Publish issued from inside a handler is delivered after the
// current handler returns, so every delivery sees committed state.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string][]events.EventHandler
	queue       []*events.Event
	dispatching bool
	history     []*events.Event
	errs        []error
}

// NewBus creates a new in-memory bus
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]events.EventHandler)}
}

// Subscribe registers handler for every envelope published on channel
func (b *Bus) Subscribe(channel string, handler events.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = append(b.subscribers[channel], handler)
}

// Publish implements events.Publisher
func (b *Bus) Publish(ctx context.Context, evts ...*events.Event) error {
	b.mu.Lock()
	for _, event := range evts {
		clone := event.Clone()
		b.queue = append(b.queue, clone)
		b.history = append(b.history, clone)
	}
	if b.dispatching {
		b.mu.Unlock()
		return nil
	}
	b.dispatching = true
	b.mu.Unlock()

	b.drain(ctx)
	return nil
}

// Redeliver delivers an already published envelope once more
func (b *Bus) Redeliver(ctx context.Context, event *events.Event) {
	b.mu.Lock()
	b.queue = append(b.queue, event.Clone())
	if b.dispatching {
		b.mu.Unlock()
		return
	}
	b.dispatching = true
	b.mu.Unlock()

	b.drain(ctx)
}

func (b *Bus) drain(ctx context.Context) {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.dispatching = false
			b.mu.Unlock()
			return
		}
		event := b.queue[0]
		b.queue = b.queue[1:]
		handlers := append([]events.EventHandler(nil), b.subscribers[event.Channel()]...)
		b.mu.Unlock()

		for _, handler := range handlers {
			if err := handler.Handle(ctx, event); err != nil {
				b.mu.Lock()
				b.errs = append(b.errs, err)
				b.mu.Unlock()
			}
		}
	}
}

// History returns every envelope published so far
func (b *Bus) History() []*events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*events.Event(nil), b.history...)
}

// Commands returns the published commands, optionally filtered by channel
func (b *Bus) Commands(channel string) []*Command {
	var commands []*Command
	for _, event := range b.History() {
		if !IsCommand(event) || (channel != "" && event.Channel() != channel) {
			continue
		}
		if cmd, err := CommandFromEvent(event); err == nil {
			commands = append(commands, cmd)
		}
	}
	return commands
}

// Replies returns the published replies, optionally filtered by channel
func (b *Bus) Replies(channel string) []*Reply {
	var replies []*Reply
	for _, event := range b.History() {
		if !IsReply(event) || (channel != "" && event.Channel() != channel) {
			continue
		}
		if reply, err := ReplyFromEvent(event); err == nil {
			replies = append(replies, reply)
		}
	}
	return replies
}

// Errors returns the handler errors seen so far
func (b *Bus) Errors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]error(nil), b.errs...)
}
