package infrastructure

import (
	"context"

	sharedconfig "github.com/ftgo/order-system/shared/config"
	"github.com/ftgo/order-system/shared/events"
)

// SNSPublisherAdapter adapts SNSEventPublisher to work with events.Publisher interface
type SNSPublisherAdapter struct {
	snsPublisher *SNSEventPublisher
}

// NewSNSPublisherAdapter creates a new SNS publisher adapter
func NewSNSPublisherAdapter(ctx context.Context, cfg sharedconfig.AWS) (*SNSPublisherAdapter, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &SNSPublisherAdapter{
		snsPublisher: NewSNSEventPublisher(NewSNSClient(awsCfg, cfg.EndpointSNS), cfg.SNSTopicArn),
	}, nil
}

// Publish implements events.Publisher interface
func (p *SNSPublisherAdapter) Publish(ctx context.Context, evts ...*events.Event) error {
	return p.snsPublisher.Publish(ctx, evts...)
}

// Close closes the publisher
func (p *SNSPublisherAdapter) Close() error {
	// SNS client doesn't need explicit closing
	return nil
}
