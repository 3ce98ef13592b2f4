package api

import "github.com/ftgo/order-system/shared/models"

const (
	CreateTicketCommand          = "CreateTicket"
	ConfirmCreateTicketCommand   = "ConfirmCreateTicket"
	CancelCreateTicketCommand    = "CancelCreateTicket"
	BeginCancelTicketCommand     = "BeginCancelTicket"
	UndoBeginCancelTicketCommand = "UndoBeginCancelTicket"
	ConfirmCancelTicketCommand   = "ConfirmCancelTicket"
	BeginReviseTicketCommand     = "BeginReviseTicket"
	UndoBeginReviseTicketCommand = "UndoBeginReviseTicket"
	ConfirmReviseTicketCommand   = "ConfirmReviseTicket"

	CreateTicketReplyType = "CreateTicketReply"
)

// TicketLineItem is one line of the ticket handed to the kitchen
type TicketLineItem struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

type TicketDetails struct {
	LineItems []TicketLineItem `json:"line_items"`
}

type CreateTicket struct {
	OrderID       models.ID     `json:"order_id"`
	RestaurantID  models.ID     `json:"restaurant_id"`
	TicketDetails TicketDetails `json:"ticket_details"`
}

type CreateTicketReply struct {
	TicketID models.ID `json:"ticket_id"`
}

func (CreateTicketReply) ReplyType() string { return CreateTicketReplyType }

// TicketCommand addresses an existing ticket; it is the payload of every
// kitchen command except CreateTicket and the revision commands
type TicketCommand struct {
	TicketID     models.ID `json:"ticket_id"`
	RestaurantID models.ID `json:"restaurant_id"`
}

type ReviseTicket struct {
	TicketID          models.ID         `json:"ticket_id"`
	RestaurantID      models.ID         `json:"restaurant_id"`
	RevisedQuantities RevisedQuantities `json:"revised_quantities"`
}
