package domain

import (
	"context"

	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/models"
)

// Restaurant is the order service's replica of a restaurant and its menu,
// kept current from restaurant events
type Restaurant struct {
	ID   models.ID  `json:"id"`
	Name string     `json:"name"`
	Menu []MenuItem `json:"menu"`
}

// MenuItem is a priced dish
type MenuItem struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Price models.Money `json:"price"`
}

// NewRestaurant builds a replica from the published menu
func NewRestaurant(id models.ID, name string, menu []api.MenuItem) (*Restaurant, error) {
	if id.IsEmpty() {
		return nil, apperrors.Validation("restaurant ID is required")
	}
	r := &Restaurant{ID: id, Name: name}
	if err := r.ReviseMenu(menu); err != nil {
		return nil, err
	}
	return r, nil
}

// ReviseMenu replaces the menu
func (r *Restaurant) ReviseMenu(menu []api.MenuItem) error {
	items := make([]MenuItem, 0, len(menu))
	seen := make(map[string]bool, len(menu))
	for _, m := range menu {
		if m.ID == "" {
			return apperrors.Validation("menu item ID is required")
		}
		if seen[m.ID] {
			return apperrors.Validation("menu item %s listed twice", m.ID)
		}
		if m.Price.Amount < 0 {
			return apperrors.Validation("menu item %s has a negative price", m.ID)
		}
		seen[m.ID] = true

		price := m.Price
		if price.Currency == "" {
			price.Currency = models.DefaultCurrency
		}
		items = append(items, MenuItem{ID: m.ID, Name: m.Name, Price: price})
	}
	r.Menu = items
	return nil
}

// FindMenuItem looks a dish up by ID
func (r *Restaurant) FindMenuItem(id string) (MenuItem, bool) {
	for _, m := range r.Menu {
		if m.ID == id {
			return m, true
		}
	}
	return MenuItem{}, false
}

type RestaurantRepository interface {
	Save(ctx context.Context, restaurant *Restaurant) error
	FindByID(ctx context.Context, id models.ID) (*Restaurant, error)
}
