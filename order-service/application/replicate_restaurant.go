package application

import (
	"context"

	"github.com/ftgo/order-system/order-service/domain"
	"github.com/ftgo/order-system/shared/api"
	"github.com/pkg/errors"
)

// ReplicateRestaurant keeps the local restaurant replica in step with the
// restaurant service
type ReplicateRestaurant struct {
	restaurantRepository domain.RestaurantRepository
}

// NewReplicateRestaurant creates a new ReplicateRestaurant use case
func NewReplicateRestaurant(restaurantRepository domain.RestaurantRepository) *ReplicateRestaurant {
	return &ReplicateRestaurant{restaurantRepository: restaurantRepository}
}

// Created stores a new restaurant. Redelivery overwrites the replica with
// the same content.
func (uc *ReplicateRestaurant) Created(ctx context.Context, payload *api.RestaurantCreated) error {
	restaurant, err := domain.NewRestaurant(payload.RestaurantID, payload.Name, payload.Menu)
	if err != nil {
		return errors.Wrap(err, "invalid restaurant")
	}
	if err := uc.restaurantRepository.Save(ctx, restaurant); err != nil {
		return errors.Wrap(err, "failed to save restaurant")
	}
	return nil
}

// MenuRevised replaces the menu of a known restaurant
func (uc *ReplicateRestaurant) MenuRevised(ctx context.Context, payload *api.RestaurantMenuRevised) error {
	restaurant, err := uc.restaurantRepository.FindByID(ctx, payload.RestaurantID)
	if err != nil {
		return errors.Wrap(err, "failed to find restaurant")
	}
	if err := restaurant.ReviseMenu(payload.Menu); err != nil {
		return errors.Wrap(err, "invalid menu")
	}
	if err := uc.restaurantRepository.Save(ctx, restaurant); err != nil {
		return errors.Wrap(err, "failed to save restaurant")
	}
	return nil
}
