// Package api holds the message schemas exchanged between the order service
// sagas and their participants: command channels, command type tags,
// payloads and typed replies.
package api

// Command channels, one per participant service
const (
	ConsumerServiceChannel   = "consumerService"
	KitchenServiceChannel    = "kitchenService"
	AccountingServiceChannel = "accountingService"
	OrderServiceChannel      = "orderService"
)

// LineItemQuantity is a (menuItemId, quantity) pair
type LineItemQuantity struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// RevisedQuantities maps a menu item id to its new quantity
type RevisedQuantities map[string]int
