// Package sagas declares the order service's saga definitions. Each is built
// once at start-up and handed to the orchestrator.
package sagas

import (
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/saga"
	"github.com/pkg/errors"
)

const CreateOrderSagaType = "CreateOrderSaga"

// CreateOrderSagaData is the state carried by a CreateOrderSaga instance
type CreateOrderSagaData struct {
	OrderID       models.ID         `json:"order_id"`
	ConsumerID    models.ID         `json:"consumer_id"`
	RestaurantID  models.ID         `json:"restaurant_id"`
	OrderTotal    models.Money      `json:"order_total"`
	TicketDetails api.TicketDetails `json:"ticket_details"`
	TicketID      models.ID         `json:"ticket_id,omitempty"`
}

// NewCreateOrderSaga builds the saga that takes a new order from
// APPROVAL_PENDING to APPROVED, or rejects it
func NewCreateOrderSaga() *saga.Definition[CreateOrderSagaData] {
	return saga.NewDefinition[CreateOrderSagaData](CreateOrderSagaType).
		Step("rejectOrder", api.OrderServiceChannel).
		WithCompensation(func(d *CreateOrderSagaData) saga.Command {
			return saga.Send(api.RejectOrderCommand, api.OrderCommand{OrderID: d.OrderID})
		}).
		Step("validateOrderByConsumer", api.ConsumerServiceChannel).
		Invoke(func(d *CreateOrderSagaData) saga.Command {
			return saga.Send(api.ValidateOrderByConsumerCommand, api.ValidateOrderByConsumer{
				ConsumerID: d.ConsumerID,
				OrderID:    d.OrderID,
				OrderTotal: d.OrderTotal,
			})
		}).
		Step("createTicket", api.KitchenServiceChannel).
		Invoke(func(d *CreateOrderSagaData) saga.Command {
			return saga.Send(api.CreateTicketCommand, api.CreateTicket{
				OrderID:       d.OrderID,
				RestaurantID:  d.RestaurantID,
				TicketDetails: d.TicketDetails,
			})
		}).
		OnReply(api.CreateTicketReplyType, handleCreateTicketReply).
		WithCompensation(func(d *CreateOrderSagaData) saga.Command {
			return saga.Send(api.CancelCreateTicketCommand, d.ticket())
		}).
		Step("authorizeCard", api.AccountingServiceChannel).
		Invoke(func(d *CreateOrderSagaData) saga.Command {
			return saga.Send(api.AuthorizeCommand, api.Authorization{
				ConsumerID: d.ConsumerID,
				OrderID:    d.OrderID,
				OrderTotal: d.OrderTotal,
			})
		}).
		Step("confirmCreateTicket", api.KitchenServiceChannel).
		Invoke(func(d *CreateOrderSagaData) saga.Command {
			return saga.Send(api.ConfirmCreateTicketCommand, d.ticket())
		}).
		Step("approveOrder", api.OrderServiceChannel).
		Invoke(func(d *CreateOrderSagaData) saga.Command {
			return saga.Send(api.ApproveOrderCommand, api.OrderCommand{OrderID: d.OrderID})
		}).
		MustBuild()
}

func handleCreateTicketReply(d *CreateOrderSagaData, reply *messaging.Reply) error {
	var payload api.CreateTicketReply
	if err := reply.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "invalid CreateTicketReply")
	}
	if payload.TicketID.IsEmpty() {
		return errors.New("CreateTicketReply carries no ticket ID")
	}
	d.TicketID = payload.TicketID
	return nil
}

func (d *CreateOrderSagaData) ticket() api.TicketCommand {
	return api.TicketCommand{TicketID: d.TicketID, RestaurantID: d.RestaurantID}
}

// Definitions returns every saga the order service orchestrates
func Definitions() []saga.Saga {
	return []saga.Saga{
		NewCreateOrderSaga(),
		NewCancelOrderSaga(),
		NewReviseOrderSaga(),
	}
}
