package application

import (
	"context"
	"time"

	"github.com/ftgo/order-system/consumer-service/domain"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// RegisterConsumerCommand represents the command to register a consumer
type RegisterConsumerCommand struct {
	Name string `json:"name"`
}

// ConsumerResponse represents a consumer as seen by API clients
type ConsumerResponse struct {
	ConsumerID models.ID             `json:"consumer_id"`
	Name       string                `json:"name"`
	Status     domain.ConsumerStatus `json:"status"`
	Version    int                   `json:"version"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// RegisterConsumer use case
type RegisterConsumer struct {
	consumerRepository domain.ConsumerRepository
	eventPublisher     events.AggregatePublisher
	transactor         messaging.Transactor
}

// NewRegisterConsumer creates a new RegisterConsumer use case
func NewRegisterConsumer(consumerRepository domain.ConsumerRepository, eventPublisher events.AggregatePublisher, transactor messaging.Transactor) *RegisterConsumer {
	return &RegisterConsumer{
		consumerRepository: consumerRepository,
		eventPublisher:     eventPublisher,
		transactor:         transactor,
	}
}

// Execute registers the consumer and announces it to the other services
func (uc *RegisterConsumer) Execute(ctx context.Context, cmd *RegisterConsumerCommand) (*ConsumerResponse, error) {
	consumer, err := domain.RegisterConsumer(cmd.Name)
	if err != nil {
		return nil, err
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.consumerRepository.Save(ctx, consumer); err != nil {
			return errors.Wrap(err, "failed to save consumer")
		}
		return errors.Wrap(
			uc.eventPublisher.Publish(ctx, events.AggregateTypeConsumer, consumer.ID, consumer.Events()),
			"failed to publish consumer events")
	})
	if err != nil {
		return nil, err
	}
	consumer.ClearEvents()

	telemetry.RecordCounter(ctx, "consumers_registered_total", "Total registered consumers", 1)
	return toConsumerResponse(consumer), nil
}

// GetConsumer use case
type GetConsumer struct {
	consumerRepository domain.ConsumerRepository
}

// NewGetConsumer creates a new GetConsumer use case
func NewGetConsumer(consumerRepository domain.ConsumerRepository) *GetConsumer {
	return &GetConsumer{consumerRepository: consumerRepository}
}

// Execute gets a consumer
func (uc *GetConsumer) Execute(ctx context.Context, consumerID string) (*ConsumerResponse, error) {
	consumer, err := findConsumer(ctx, uc.consumerRepository, consumerID)
	if err != nil {
		return nil, err
	}
	return toConsumerResponse(consumer), nil
}

// SuspendConsumer use case
type SuspendConsumer struct {
	consumerRepository domain.ConsumerRepository
}

// NewSuspendConsumer creates a new SuspendConsumer use case
func NewSuspendConsumer(consumerRepository domain.ConsumerRepository) *SuspendConsumer {
	return &SuspendConsumer{consumerRepository: consumerRepository}
}

// Execute suspends the consumer; its later orders fail validation
func (uc *SuspendConsumer) Execute(ctx context.Context, consumerID string) (*ConsumerResponse, error) {
	consumer, err := findConsumer(ctx, uc.consumerRepository, consumerID)
	if err != nil {
		return nil, err
	}
	if err := consumer.Suspend(); err != nil {
		return nil, err
	}
	if err := uc.consumerRepository.Update(ctx, consumer); err != nil {
		return nil, errors.Wrap(err, "failed to update consumer")
	}
	return toConsumerResponse(consumer), nil
}

func findConsumer(ctx context.Context, repo domain.ConsumerRepository, consumerID string) (*domain.Consumer, error) {
	id, err := models.NewID(consumerID)
	if err != nil {
		return nil, apperrors.Validation("invalid consumer ID %q", consumerID)
	}

	consumer, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find consumer")
	}
	return consumer, nil
}

func toConsumerResponse(consumer *domain.Consumer) *ConsumerResponse {
	return &ConsumerResponse{
		ConsumerID: consumer.ID,
		Name:       consumer.Name,
		Status:     consumer.Status,
		Version:    consumer.Version.Value,
		UpdatedAt:  consumer.Timestamps.UpdatedAt,
	}
}

// ConsumerCommandHandlers validates orders on behalf of the sagas
type ConsumerCommandHandlers struct {
	consumerRepository domain.ConsumerRepository
}

// NewConsumerCommandHandlers creates the handlers
func NewConsumerCommandHandlers(consumerRepository domain.ConsumerRepository) *ConsumerCommandHandlers {
	return &ConsumerCommandHandlers{consumerRepository: consumerRepository}
}

// Handlers returns the dispatch table of the consumer service channel
func (h *ConsumerCommandHandlers) Handlers() messaging.CommandHandlers {
	return messaging.CommandHandlers{
		api.ValidateOrderByConsumerCommand: h.validateOrder,
	}
}

func (h *ConsumerCommandHandlers) validateOrder(ctx context.Context, cmd *messaging.Command) (interface{}, error) {
	var payload api.ValidateOrderByConsumer
	if err := cmd.UnmarshalPayload(&payload); err != nil {
		return nil, apperrors.Validation("invalid %s payload: %v", cmd.Type, err)
	}

	consumer, err := h.consumerRepository.FindByID(ctx, payload.ConsumerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find consumer")
	}

	err = consumer.ValidateOrder(payload.OrderTotal)
	telemetry.RecordCounter(ctx, "order_validations_total", "Total order validations by consumer", 1,
		attribute.Bool("valid", err == nil),
	)
	return nil, err
}
