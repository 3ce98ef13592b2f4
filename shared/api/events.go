package api

import "github.com/ftgo/order-system/shared/models"

// MenuItem as published by the restaurant service
type MenuItem struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Price models.Money `json:"price"`
}

// RestaurantCreated is the payload of restaurant.created
type RestaurantCreated struct {
	RestaurantID models.ID  `json:"restaurant_id"`
	Name         string     `json:"name"`
	Menu         []MenuItem `json:"menu"`
}

// RestaurantMenuRevised is the payload of restaurant.menu.revised
type RestaurantMenuRevised struct {
	RestaurantID models.ID  `json:"restaurant_id"`
	Menu         []MenuItem `json:"menu"`
}

// ConsumerCreated is the payload of consumer.created
type ConsumerCreated struct {
	ConsumerID models.ID `json:"consumer_id"`
	Name       string    `json:"name"`
}
