package messaging

import (
	"context"

	"github.com/ftgo/order-system/shared/events"
	"github.com/pkg/errors"
)

// Transactor runs fn inside one local transaction
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTransactor runs fn directly, for stores without transactions
type NoopTransactor struct{}

func (NoopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Producer sends commands and replies through an events.Publisher. Backed by
// the transactional outbox, a send commits or rolls back with the caller's
// local transaction.
type Producer struct {
	publisher events.Publisher
}

// NewProducer creates a new Producer
func NewProducer(publisher events.Publisher) *Producer {
	return &Producer{publisher: publisher}
}

// Send publishes cmd on channel
func (p *Producer) Send(ctx context.Context, channel string, cmd *Command) error {
	if channel == "" {
		return errors.New("command channel is required")
	}
	cmd.Channel = channel

	if err := p.publisher.Publish(ctx, cmd.ToEvent()); err != nil {
		return errors.Wrapf(err, "failed to send command %s", cmd.Type)
	}
	return nil
}

// Reply publishes reply on its reply channel
func (p *Producer) Reply(ctx context.Context, reply *Reply) error {
	if reply.Channel == "" {
		return errors.New("reply channel is required")
	}

	if err := p.publisher.Publish(ctx, reply.ToEvent()); err != nil {
		return errors.Wrapf(err, "failed to send reply %s", reply.Type)
	}
	return nil
}
