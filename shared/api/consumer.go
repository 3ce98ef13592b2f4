package api

import "github.com/ftgo/order-system/shared/models"

const ValidateOrderByConsumerCommand = "ValidateOrderByConsumer"

type ValidateOrderByConsumer struct {
	ConsumerID models.ID    `json:"consumer_id"`
	OrderID    models.ID    `json:"order_id"`
	OrderTotal models.Money `json:"order_total"`
}
