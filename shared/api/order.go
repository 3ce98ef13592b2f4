package api

import "github.com/ftgo/order-system/shared/models"

const (
	ApproveOrderCommand         = "ApproveOrder"
	RejectOrderCommand          = "RejectOrder"
	BeginCancelOrderCommand     = "BeginCancelOrder"
	UndoBeginCancelOrderCommand = "UndoBeginCancelOrder"
	ConfirmCancelOrderCommand   = "ConfirmCancelOrder"
	BeginReviseOrderCommand     = "BeginReviseOrder"
	UndoBeginReviseOrderCommand = "UndoBeginReviseOrder"
	ConfirmReviseOrderCommand   = "ConfirmReviseOrder"

	BeginReviseOrderReplyType = "BeginReviseOrderReply"
)

// OrderCommand addresses an existing order
type OrderCommand struct {
	OrderID models.ID `json:"order_id"`
}

type ReviseOrder struct {
	OrderID           models.ID         `json:"order_id"`
	RevisedQuantities RevisedQuantities `json:"revised_quantities"`
}

type BeginReviseOrderReply struct {
	RevisedOrderTotal models.Money `json:"revised_order_total"`
}

func (BeginReviseOrderReply) ReplyType() string { return BeginReviseOrderReplyType }
