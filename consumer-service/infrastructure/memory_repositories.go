package infrastructure

import (
	"context"

	"github.com/ftgo/order-system/consumer-service/domain"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/models"
)

var _ domain.ConsumerRepository = (*MemoryConsumerRepository)(nil)

// MemoryConsumerRepository keeps consumers in process
type MemoryConsumerRepository struct {
	store *sharedinfra.MemoryStore[*domain.Consumer]
}

// NewMemoryConsumerRepository creates a new MemoryConsumerRepository
func NewMemoryConsumerRepository() *MemoryConsumerRepository {
	return &MemoryConsumerRepository{
		store: sharedinfra.NewMemoryStore("consumer",
			func(c *domain.Consumer) *domain.Consumer {
				clone := *c
				clone.ClearEvents()
				return &clone
			},
			func(c *domain.Consumer) models.Version { return c.Version }),
	}
}

func (r *MemoryConsumerRepository) Save(_ context.Context, consumer *domain.Consumer) error {
	return r.store.Insert(consumer.ID, consumer)
}

func (r *MemoryConsumerRepository) Update(_ context.Context, consumer *domain.Consumer) error {
	return r.store.Update(consumer.ID, consumer)
}

func (r *MemoryConsumerRepository) FindByID(_ context.Context, id models.ID) (*domain.Consumer, error) {
	return r.store.Get(id)
}
