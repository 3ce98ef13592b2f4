package infrastructure

import (
	"context"

	"github.com/ftgo/order-system/order-service/domain"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/models"
)

var (
	_ domain.OrderRepository      = (*MemoryOrderRepository)(nil)
	_ domain.RestaurantRepository = (*MemoryRestaurantRepository)(nil)
)

// MemoryOrderRepository keeps orders in process
type MemoryOrderRepository struct {
	store *sharedinfra.MemoryStore[*domain.Order]
}

// NewMemoryOrderRepository creates a new MemoryOrderRepository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		store: sharedinfra.NewMemoryStore("order", cloneOrder,
			func(o *domain.Order) models.Version { return o.Version }),
	}
}

func (r *MemoryOrderRepository) Save(_ context.Context, order *domain.Order) error {
	return r.store.Insert(order.ID, order)
}

func (r *MemoryOrderRepository) Update(_ context.Context, order *domain.Order) error {
	return r.store.Update(order.ID, order)
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id models.ID) (*domain.Order, error) {
	return r.store.Get(id)
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.LineItems = append([]domain.OrderLineItem(nil), o.LineItems...)
	c.ClearEvents()
	return &c
}

// MemoryRestaurantRepository keeps the restaurant replica in process
type MemoryRestaurantRepository struct {
	store *sharedinfra.MemoryStore[*domain.Restaurant]
}

// NewMemoryRestaurantRepository creates a new MemoryRestaurantRepository
func NewMemoryRestaurantRepository() *MemoryRestaurantRepository {
	return &MemoryRestaurantRepository{
		store: sharedinfra.NewMemoryStore("restaurant", cloneRestaurant,
			func(*domain.Restaurant) models.Version { return models.Version{} }),
	}
}

func (r *MemoryRestaurantRepository) Save(_ context.Context, restaurant *domain.Restaurant) error {
	r.store.Upsert(restaurant.ID, restaurant)
	return nil
}

func (r *MemoryRestaurantRepository) FindByID(_ context.Context, id models.ID) (*domain.Restaurant, error) {
	return r.store.Get(id)
}

func cloneRestaurant(r *domain.Restaurant) *domain.Restaurant {
	c := *r
	c.Menu = append([]domain.MenuItem(nil), r.Menu...)
	return &c
}
