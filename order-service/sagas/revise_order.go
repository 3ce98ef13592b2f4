package sagas

import (
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/saga"
	"github.com/pkg/errors"
)

const ReviseOrderSagaType = "ReviseOrderSaga"

// ReviseOrderSagaData is the state carried by a ReviseOrderSaga instance
type ReviseOrderSagaData struct {
	OrderID           models.ID             `json:"order_id"`
	ConsumerID        models.ID             `json:"consumer_id"`
	RestaurantID      models.ID             `json:"restaurant_id"`
	RevisedQuantities api.RevisedQuantities `json:"revised_quantities"`
	RevisedOrderTotal models.Money          `json:"revised_order_total"`
}

// NewReviseOrderSaga builds the saga that changes line item quantities of
// an APPROVED order
func NewReviseOrderSaga() *saga.Definition[ReviseOrderSagaData] {
	return saga.NewDefinition[ReviseOrderSagaData](ReviseOrderSagaType).
		Step("beginReviseOrder", api.OrderServiceChannel).
		Invoke(func(d *ReviseOrderSagaData) saga.Command {
			return saga.Send(api.BeginReviseOrderCommand, d.revision())
		}).
		OnReply(api.BeginReviseOrderReplyType, handleBeginReviseOrderReply).
		WithCompensation(func(d *ReviseOrderSagaData) saga.Command {
			return saga.Send(api.UndoBeginReviseOrderCommand, api.OrderCommand{OrderID: d.OrderID})
		}).
		Step("beginReviseTicket", api.KitchenServiceChannel).
		Invoke(func(d *ReviseOrderSagaData) saga.Command {
			return saga.Send(api.BeginReviseTicketCommand, d.ticketRevision())
		}).
		WithCompensation(func(d *ReviseOrderSagaData) saga.Command {
			return saga.Send(api.UndoBeginReviseTicketCommand, api.TicketCommand{
				TicketID:     d.OrderID,
				RestaurantID: d.RestaurantID,
			})
		}).
		Step("reviseAuthorization", api.AccountingServiceChannel).
		Invoke(func(d *ReviseOrderSagaData) saga.Command {
			return saga.Send(api.ReviseAuthorizationCommand, api.Authorization{
				ConsumerID: d.ConsumerID,
				OrderID:    d.OrderID,
				OrderTotal: d.RevisedOrderTotal,
			})
		}).
		Step("confirmReviseTicket", api.KitchenServiceChannel).
		Invoke(func(d *ReviseOrderSagaData) saga.Command {
			return saga.Send(api.ConfirmReviseTicketCommand, d.ticketRevision())
		}).
		Step("confirmReviseOrder", api.OrderServiceChannel).
		Invoke(func(d *ReviseOrderSagaData) saga.Command {
			return saga.Send(api.ConfirmReviseOrderCommand, d.revision())
		}).
		MustBuild()
}

func handleBeginReviseOrderReply(d *ReviseOrderSagaData, reply *messaging.Reply) error {
	var payload api.BeginReviseOrderReply
	if err := reply.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "invalid BeginReviseOrderReply")
	}
	d.RevisedOrderTotal = payload.RevisedOrderTotal
	return nil
}

func (d *ReviseOrderSagaData) revision() api.ReviseOrder {
	return api.ReviseOrder{OrderID: d.OrderID, RevisedQuantities: d.RevisedQuantities}
}

func (d *ReviseOrderSagaData) ticketRevision() api.ReviseTicket {
	return api.ReviseTicket{
		TicketID:          d.OrderID,
		RestaurantID:      d.RestaurantID,
		RevisedQuantities: d.RevisedQuantities,
	}
}
