package sagas

import (
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/saga"
)

const CancelOrderSagaType = "CancelOrderSaga"

// CancelOrderSagaData is the state carried by a CancelOrderSaga instance
type CancelOrderSagaData struct {
	OrderID      models.ID    `json:"order_id"`
	ConsumerID   models.ID    `json:"consumer_id"`
	RestaurantID models.ID    `json:"restaurant_id"`
	OrderTotal   models.Money `json:"order_total"`
}

// NewCancelOrderSaga builds the saga that cancels an APPROVED order
func NewCancelOrderSaga() *saga.Definition[CancelOrderSagaData] {
	return saga.NewDefinition[CancelOrderSagaData](CancelOrderSagaType).
		Step("beginCancelOrder", api.OrderServiceChannel).
		Invoke(func(d *CancelOrderSagaData) saga.Command {
			return saga.Send(api.BeginCancelOrderCommand, d.order())
		}).
		WithCompensation(func(d *CancelOrderSagaData) saga.Command {
			return saga.Send(api.UndoBeginCancelOrderCommand, d.order())
		}).
		Step("beginCancelTicket", api.KitchenServiceChannel).
		Invoke(func(d *CancelOrderSagaData) saga.Command {
			return saga.Send(api.BeginCancelTicketCommand, d.ticket())
		}).
		WithCompensation(func(d *CancelOrderSagaData) saga.Command {
			return saga.Send(api.UndoBeginCancelTicketCommand, d.ticket())
		}).
		Step("reverseAuthorization", api.AccountingServiceChannel).
		Invoke(func(d *CancelOrderSagaData) saga.Command {
			return saga.Send(api.ReverseAuthorizationCommand, api.Authorization{
				ConsumerID: d.ConsumerID,
				OrderID:    d.OrderID,
				OrderTotal: d.OrderTotal,
			})
		}).
		Step("confirmCancelTicket", api.KitchenServiceChannel).
		Invoke(func(d *CancelOrderSagaData) saga.Command {
			return saga.Send(api.ConfirmCancelTicketCommand, d.ticket())
		}).
		Step("confirmCancelOrder", api.OrderServiceChannel).
		Invoke(func(d *CancelOrderSagaData) saga.Command {
			return saga.Send(api.ConfirmCancelOrderCommand, d.order())
		}).
		MustBuild()
}

func (d *CancelOrderSagaData) order() api.OrderCommand {
	return api.OrderCommand{OrderID: d.OrderID}
}

// tickets share the ID of their order
func (d *CancelOrderSagaData) ticket() api.TicketCommand {
	return api.TicketCommand{TicketID: d.OrderID, RestaurantID: d.RestaurantID}
}
