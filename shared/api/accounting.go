package api

import "github.com/ftgo/order-system/shared/models"

const (
	AuthorizeCommand            = "Authorize"
	ReverseAuthorizationCommand = "ReverseAuthorization"
	ReviseAuthorizationCommand  = "ReviseAuthorization"
)

// Authorization is the payload of every accounting command
type Authorization struct {
	ConsumerID models.ID    `json:"consumer_id"`
	OrderID    models.ID    `json:"order_id"`
	OrderTotal models.Money `json:"order_total"`
}
