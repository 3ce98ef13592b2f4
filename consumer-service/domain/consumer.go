package domain

import (
	"context"
	"strings"

	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
)

// ConsumerStatus represents the status of a consumer
type ConsumerStatus string

const (
	ConsumerStatusActive    ConsumerStatus = "active"
	ConsumerStatusSuspended ConsumerStatus = "suspended"
)

// Consumer aggregate root
type Consumer struct {
	ID         models.ID      `json:"id"`
	Name       string         `json:"name"`
	Status     ConsumerStatus `json:"status"`
	Timestamps models.Timestamps
	Version    models.Version

	events []*events.Event
}

// RegisterConsumer factory method
func RegisterConsumer(name string) (*Consumer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("consumer name is required")
	}

	consumer := &Consumer{
		ID:         models.GenerateUUID(),
		Name:       name,
		Status:     ConsumerStatusActive,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}

	consumer.recordEvent(events.NewEvent(consumer.ID, events.ConsumerCreatedEvent, api.ConsumerCreated{
		ConsumerID: consumer.ID,
		Name:       consumer.Name,
	}))
	return consumer, nil
}

// ValidateOrder checks the consumer may place an order of orderTotal
func (c *Consumer) ValidateOrder(orderTotal models.Money) error {
	if c.Status != ConsumerStatusActive {
		return apperrors.BusinessRule("consumer %s is %s", c.ID, c.Status)
	}
	if !orderTotal.IsPositive() {
		return apperrors.BusinessRule("order total %s must be positive", orderTotal)
	}
	return nil
}

// Suspend stops the consumer from placing orders
func (c *Consumer) Suspend() error {
	if c.Status == ConsumerStatusSuspended {
		return apperrors.UnsupportedTransition("consumer", "suspend", string(c.Status))
	}
	c.Status = ConsumerStatusSuspended
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()
	return nil
}

// Events returns domain events
func (c *Consumer) Events() []*events.Event {
	return c.events
}

// ClearEvents clears domain events
func (c *Consumer) ClearEvents() {
	c.events = make([]*events.Event, 0)
}

func (c *Consumer) recordEvent(event *events.Event) {
	c.events = append(c.events, event)
}

type ConsumerRepository interface {
	Save(ctx context.Context, consumer *Consumer) error
	Update(ctx context.Context, consumer *Consumer) error
	FindByID(ctx context.Context, id models.ID) (*Consumer, error)
}
