package infrastructure

import (
	"context"

	sharedconfig "github.com/ftgo/order-system/shared/config"
	"github.com/ftgo/order-system/shared/logger"
	"github.com/pkg/errors"
)

// SQSSubscriberAdapter owns the SQS subscriber of one service queue
type SQSSubscriberAdapter struct {
	sqsSubscriber *SQSEventSubscriber
	isRunning     bool
}

// NewSQSSubscriberAdapter creates a subscriber that feeds every message of
// the configured queue to handler
func NewSQSSubscriberAdapter(ctx context.Context, cfg sharedconfig.AWS, handler EventHandler, log *logger.Logger, opts ...SQSSubscriberOption) (*SQSSubscriberAdapter, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &SQSSubscriberAdapter{
		sqsSubscriber: NewSQSEventSubscriber(NewSQSClient(awsCfg, cfg.EndpointSQS), cfg.SQSQueueURL, handler, log, opts...),
	}, nil
}

// Start starts consuming
func (s *SQSSubscriberAdapter) Start(ctx context.Context) error {
	if s.isRunning {
		return errors.New("subscriber is already running")
	}

	if err := s.sqsSubscriber.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start SQS subscriber")
	}

	s.isRunning = true
	return nil
}

// Close stops the subscriber
func (s *SQSSubscriberAdapter) Close() error {
	if !s.isRunning {
		return nil
	}

	if err := s.sqsSubscriber.Stop(context.Background()); err != nil {
		return errors.Wrap(err, "failed to stop SQS subscriber")
	}

	s.isRunning = false
	return nil
}
