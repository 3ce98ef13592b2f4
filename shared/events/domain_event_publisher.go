package events

import (
	"context"

	"github.com/ftgo/order-system/shared/models"
)

// Aggregate types double as the channel their domain events are published on
const (
	AggregateTypeOrder      = "order"
	AggregateTypeTicket     = "ticket"
	AggregateTypeConsumer   = "consumer"
	AggregateTypeAccount    = "account"
	AggregateTypeRestaurant = "restaurant"
	AggregateTypeSaga       = "saga"
)

// EventsChannel returns the channel carrying the domain events of an aggregate type
func EventsChannel(aggregateType string) string {
	return aggregateType + ".events"
}

// AggregatePublisher publishes the events produced by one aggregate transition
type AggregatePublisher interface {
	Publish(ctx context.Context, aggregateType string, aggregateID models.ID, evts []*Event) error
}

var _ AggregatePublisher = (*DomainEventPublisher)(nil)

// DomainEventPublisher stamps aggregate events with their origin before
// handing them to the underlying publisher. When the publisher is the
// transactional outbox the events commit together with the aggregate.
type DomainEventPublisher struct {
	publisher Publisher
}

// NewDomainEventPublisher creates a new DomainEventPublisher
func NewDomainEventPublisher(publisher Publisher) *DomainEventPublisher {
	return &DomainEventPublisher{publisher: publisher}
}

// Publish publishes the events produced by one aggregate transition
func (p *DomainEventPublisher) Publish(ctx context.Context, aggregateType string, aggregateID models.ID, evts []*Event) error {
	if len(evts) == 0 {
		return nil
	}

	for _, event := range evts {
		if event.AggregateID.IsEmpty() {
			event.AggregateID = aggregateID
		}
		event.WithMetadata(MetadataAggregateType, aggregateType)
		event.WithMetadata(MetadataChannel, EventsChannel(aggregateType))
	}

	return p.publisher.Publish(ctx, evts...)
}
