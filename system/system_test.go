package system

import (
	"context"
	"testing"
	"time"

	accountingapp "github.com/ftgo/order-system/accounting-service/application"
	accountingdomain "github.com/ftgo/order-system/accounting-service/domain"
	consumerapp "github.com/ftgo/order-system/consumer-service/application"
	kitchenapp "github.com/ftgo/order-system/kitchen-service/application"
	kitchendomain "github.com/ftgo/order-system/kitchen-service/domain"
	orderapp "github.com/ftgo/order-system/order-service/application"
	orderdomain "github.com/ftgo/order-system/order-service/domain"
	"github.com/ftgo/order-system/order-service/sagas"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuItemID = "chicken-vindaloo"

type fixture struct {
	*System
	ctx          context.Context
	consumerID   models.ID
	restaurantID models.ID
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	s, err := New(opts)
	require.NoError(t, err)

	ctx := context.Background()
	consumer, err := s.RegisterConsumer.Execute(ctx, &consumerapp.RegisterConsumerCommand{Name: "Ann"})
	require.NoError(t, err)

	restaurantID := models.GenerateUUID()
	require.NoError(t, s.PublishRestaurant(ctx, restaurantID, "Ajanta", []api.MenuItem{
		{ID: menuItemID, Name: "Chicken Vindaloo", Price: models.NewMoney(1234, "USD")},
	}))

	return &fixture{System: s, ctx: ctx, consumerID: consumer.ConsumerID, restaurantID: restaurantID}
}

func (f *fixture) placeOrder(t *testing.T, quantity int) *orderapp.CreateOrderResponse {
	t.Helper()
	response, err := f.CreateOrder.Execute(f.ctx, &orderapp.CreateOrderCommand{
		ConsumerID:      f.consumerID.String(),
		RestaurantID:    f.restaurantID.String(),
		DeliveryTime:    time.Now().Add(time.Hour),
		DeliveryAddress: "1 Main Street",
		LineItems:       []api.LineItemQuantity{{MenuItemID: menuItemID, Quantity: quantity}},
	})
	require.NoError(t, err)
	return response
}

func (f *fixture) order(t *testing.T, id models.ID) *orderdomain.Order {
	t.Helper()
	order, err := f.Orders.FindByID(f.ctx, id)
	require.NoError(t, err)
	return order
}

func (f *fixture) ticket(t *testing.T, id models.ID) *kitchendomain.Ticket {
	t.Helper()
	ticket, err := f.Tickets.FindByID(f.ctx, id)
	require.NoError(t, err)
	return ticket
}

func (f *fixture) saga(t *testing.T, id models.ID) *saga.Instance {
	t.Helper()
	inst, err := f.Orchestrator.Get(f.ctx, id)
	require.NoError(t, err)
	return inst
}

func (f *fixture) account(t *testing.T) *accountingdomain.Account {
	t.Helper()
	account, err := f.Accounts.FindByID(f.ctx, f.consumerID)
	require.NoError(t, err)
	return account
}

func (f *fixture) eventTypes(aggregateType string) []string {
	var types []string
	for _, event := range f.Bus.History() {
		if event.Channel() == events.EventsChannel(aggregateType) {
			types = append(types, event.EventType)
		}
	}
	return types
}

func commandTypes(commands []*messaging.Command) []string {
	types := make([]string, 0, len(commands))
	for _, cmd := range commands {
		types = append(types, cmd.Type)
	}
	return types
}

func TestCreateOrder_Approved(t *testing.T) {
	f := newFixture(t, Options{})

	response := f.placeOrder(t, 5)

	order := f.order(t, response.OrderID)
	assert.Equal(t, orderdomain.OrderStateApproved, order.State)
	assert.Equal(t, int64(6170), order.OrderTotal().Amount)
	assert.Equal(t, saga.SagaStatusCompleted, f.saga(t, response.SagaID).Status)
	assert.Equal(t, kitchendomain.TicketStateAwaitingAcceptance, f.ticket(t, response.OrderID).State)
	assert.Equal(t, int64(6170), f.account(t).Authorizations[response.OrderID].Amount)

	assert.Equal(t, []string{events.OrderCreatedEvent, events.OrderAuthorizedEvent}, f.eventTypes(events.AggregateTypeOrder))
	assert.Equal(t, []string{
		api.ValidateOrderByConsumerCommand,
		api.CreateTicketCommand,
		api.AuthorizeCommand,
		api.ConfirmCreateTicketCommand,
		api.ApproveOrderCommand,
	}, commandTypes(f.Bus.Commands("")))
	assert.Empty(t, f.Bus.Errors())
}

func TestCreateOrder_AuthorizationFailureCompensates(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.ConfigureAccount.Execute(f.ctx, &accountingapp.ConfigureAccountCommand{
		AccountID:          f.consumerID.String(),
		Status:             accountingdomain.AccountStatusEnabled,
		AuthorizationLimit: models.NewMoney(1000, "USD"),
	})
	require.NoError(t, err)

	response := f.placeOrder(t, 5)

	assert.Equal(t, orderdomain.OrderStateRejected, f.order(t, response.OrderID).State)
	assert.Equal(t, kitchendomain.TicketStateCancelled, f.ticket(t, response.OrderID).State)

	inst := f.saga(t, response.SagaID)
	assert.Equal(t, saga.SagaStatusRolledBack, inst.Status)
	assert.Equal(t, -1, inst.StepIndex)
	assert.Contains(t, inst.FailureReason, "authorization limit")

	assert.Equal(t, []string{
		api.ValidateOrderByConsumerCommand,
		api.CreateTicketCommand,
		api.AuthorizeCommand,
		api.CancelCreateTicketCommand,
		api.RejectOrderCommand,
	}, commandTypes(f.Bus.Commands("")))

	cancel := f.Bus.Commands(api.KitchenServiceChannel)[1]
	var payload api.TicketCommand
	require.NoError(t, cancel.UnmarshalPayload(&payload))
	assert.Equal(t, response.OrderID, payload.TicketID)
}

func TestCreateOrder_SuspendedConsumerIsRejected(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.SuspendConsumer.Execute(f.ctx, f.consumerID.String())
	require.NoError(t, err)

	response := f.placeOrder(t, 1)

	assert.Equal(t, orderdomain.OrderStateRejected, f.order(t, response.OrderID).State)
	assert.Equal(t, []string{api.ValidateOrderByConsumerCommand, api.RejectOrderCommand}, commandTypes(f.Bus.Commands("")))

	_, err = f.Tickets.FindByID(f.ctx, response.OrderID)
	assert.Error(t, err)
}

func TestReviseOrder_ReducesTotal(t *testing.T) {
	f := newFixture(t, Options{})
	created := f.placeOrder(t, 5)

	started, err := f.ReviseOrder.Execute(f.ctx, &orderapp.ReviseOrderCommand{
		OrderID:           created.OrderID.String(),
		RevisedQuantities: api.RevisedQuantities{menuItemID: 4},
	})
	require.NoError(t, err)

	order := f.order(t, created.OrderID)
	assert.Equal(t, orderdomain.OrderStateApproved, order.State)
	assert.Equal(t, int64(6170-1234), order.OrderTotal().Amount)
	assert.Equal(t, saga.SagaStatusCompleted, f.saga(t, started.SagaID).Status)
	assert.Equal(t, int64(4936), f.account(t).Authorizations[created.OrderID].Amount)

	ticket := f.ticket(t, created.OrderID)
	assert.Equal(t, kitchendomain.TicketStateAwaitingAcceptance, ticket.State)
	assert.Equal(t, 4, ticket.LineItems[0].Quantity)

	var proposed orderdomain.OrderRevisionProposedData
	for _, event := range f.Bus.History() {
		if event.EventType == events.OrderRevisionProposedEvent {
			require.NoError(t, event.UnmarshalPayload(&proposed))
		}
	}
	assert.Equal(t, int64(6170), proposed.CurrentOrderTotal.Amount)
	assert.Equal(t, int64(4936), proposed.NewOrderTotal.Amount)
}

func TestReviseOrder_ThresholdRejectsRevision(t *testing.T) {
	f := newFixture(t, Options{OrderMinimum: 10000})
	created := f.placeOrder(t, 5)

	started, err := f.ReviseOrder.Execute(f.ctx, &orderapp.ReviseOrderCommand{
		OrderID:           created.OrderID.String(),
		RevisedQuantities: api.RevisedQuantities{menuItemID: 9},
	})
	require.NoError(t, err)

	inst := f.saga(t, started.SagaID)
	assert.Equal(t, saga.SagaStatusRolledBack, inst.Status)
	assert.Contains(t, inst.FailureReason, "order minimum")

	order := f.order(t, created.OrderID)
	assert.Equal(t, orderdomain.OrderStateApproved, order.State)
	assert.Equal(t, int64(6170), order.OrderTotal().Amount)
	assert.Empty(t, f.Bus.Commands(api.AccountingServiceChannel)[1:])
}

func TestCancelOrder_Cancelled(t *testing.T) {
	f := newFixture(t, Options{})
	created := f.placeOrder(t, 2)

	started, err := f.CancelOrder.Execute(f.ctx, &orderapp.CancelOrderCommand{OrderID: created.OrderID.String()})
	require.NoError(t, err)

	assert.Equal(t, saga.SagaStatusCompleted, f.saga(t, started.SagaID).Status)
	assert.Equal(t, orderdomain.OrderStateCancelled, f.order(t, created.OrderID).State)
	assert.Equal(t, kitchendomain.TicketStateCancelled, f.ticket(t, created.OrderID).State)
	assert.NotContains(t, f.account(t).Authorizations, created.OrderID)
	assert.Contains(t, f.eventTypes(events.AggregateTypeOrder), events.OrderCancelledEvent)
}

func TestCancelOrder_WhileRevisionPendingFails(t *testing.T) {
	f := newFixture(t, Options{})
	created := f.placeOrder(t, 5)

	order := f.order(t, created.OrderID)
	_, _, err := order.Revise(orderdomain.OrderRevision{RevisedQuantities: api.RevisedQuantities{menuItemID: 4}}, 1<<62)
	require.NoError(t, err)
	require.NoError(t, f.Orders.Update(f.ctx, order))
	before := f.order(t, created.OrderID)

	started, err := f.CancelOrder.Execute(f.ctx, &orderapp.CancelOrderCommand{OrderID: created.OrderID.String()})
	require.NoError(t, err)

	replies := f.Bus.Replies(saga.ReplyChannel(sagas.CancelOrderSagaType))
	require.Len(t, replies, 1)
	assert.Equal(t, messaging.OutcomeFailure, replies[0].Outcome)
	assert.Contains(t, replies[0].Reason, "unsupported state transition")

	after := f.order(t, created.OrderID)
	assert.Equal(t, orderdomain.OrderStateRevisionPending, after.State)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, saga.SagaStatusRolledBack, f.saga(t, started.SagaID).Status)
}

func TestCancelOrder_CompensationFailureIsStuck(t *testing.T) {
	f := newFixture(t, Options{})
	created := f.placeOrder(t, 2)

	// the reversal fails because the authorization is already gone
	account := f.account(t)
	require.NoError(t, account.ReverseAuthorization(created.OrderID))
	require.NoError(t, f.Accounts.Update(f.ctx, account))

	// and the ticket moves on before the saga can undo its cancellation
	f.Bus.Subscribe(api.AccountingServiceChannel, events.HandlerFunc(func(ctx context.Context, event *events.Event) error {
		ticket, err := f.Tickets.FindByID(ctx, created.OrderID)
		if err != nil {
			return err
		}
		if _, err := ticket.ConfirmCancel(); err != nil {
			return err
		}
		return f.Tickets.Update(ctx, ticket)
	}))

	started, err := f.CancelOrder.Execute(f.ctx, &orderapp.CancelOrderCommand{OrderID: created.OrderID.String()})
	require.NoError(t, err)

	inst := f.saga(t, started.SagaID)
	assert.Equal(t, saga.SagaStatusStuck, inst.Status)
	assert.Equal(t, messaging.DirectionCompensating, inst.Direction)
	assert.Equal(t, 1, inst.StepIndex)
	assert.Equal(t, orderdomain.OrderStateCancelPending, f.order(t, created.OrderID).State)

	stuck, err := f.Orchestrator.Stuck(f.ctx)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, started.SagaID, stuck[0].ID)
}

func TestDuplicateDeliveryIsIgnored(t *testing.T) {
	f := newFixture(t, Options{})
	created := f.placeOrder(t, 5)

	before := f.saga(t, created.SagaID)
	replies := len(f.Bus.Replies(""))

	var authorize, authorizeReply *events.Event
	for _, event := range f.Bus.History() {
		switch {
		case messaging.IsCommand(event) && event.EventType == api.AuthorizeCommand:
			authorize = event
		case messaging.IsReply(event) && authorize != nil && authorizeReply == nil:
			authorizeReply = event
		}
	}
	require.NotNil(t, authorize)
	require.NotNil(t, authorizeReply)

	f.Bus.Redeliver(f.ctx, authorizeReply)
	f.Bus.Redeliver(f.ctx, authorize)

	after := f.saga(t, created.SagaID)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Status, after.Status)

	// the participant answers the redelivered command from its memory
	assert.Len(t, f.Bus.Replies(""), replies+1)
	assert.Len(t, f.account(t).Authorizations, 1)
	assert.Empty(t, f.Bus.Errors())
}

// replyCollector captures the replies of a dispatcher outside the bus
type replyCollector struct {
	replies []*messaging.Reply
}

func (c *replyCollector) Reply(_ context.Context, reply *messaging.Reply) error {
	c.replies = append(c.replies, reply)
	return nil
}

func TestRedeliveryWithoutProcessedRecordStillSucceeds(t *testing.T) {
	f := newFixture(t, Options{})
	created := f.placeOrder(t, 5)
	require.Equal(t, saga.SagaStatusCompleted, f.saga(t, created.SagaID).Status)

	var createTicket, authorize *messaging.Command
	for _, cmd := range f.Bus.Commands(api.KitchenServiceChannel) {
		if cmd.Type == api.CreateTicketCommand {
			createTicket = cmd
		}
	}
	for _, cmd := range f.Bus.Commands(api.AccountingServiceChannel) {
		if cmd.Type == api.AuthorizeCommand {
			authorize = cmd
		}
	}
	require.NotNil(t, createTicket)
	require.NotNil(t, authorize)

	// fresh processed stores know nothing about the first deliveries
	publisher := events.NewDomainEventPublisher(f.Bus)
	collector := &replyCollector{}
	kitchen := messaging.NewCommandDispatcher("kitchen-service-redelivery",
		kitchenapp.NewKitchenCommandHandlers(f.Tickets, publisher).Handlers(), collector,
		messaging.WithProcessedStore(messaging.NewMemoryProcessedStore()))
	accounting := messaging.NewCommandDispatcher("accounting-service-redelivery",
		accountingapp.NewAccountingCommandHandlers(f.Accounts, publisher).Handlers(), collector,
		messaging.WithProcessedStore(messaging.NewMemoryProcessedStore()))

	ticketEvents := len(f.eventTypes(events.AggregateTypeTicket))
	require.NoError(t, kitchen.Dispatch(f.ctx, createTicket))
	require.NoError(t, accounting.Dispatch(f.ctx, authorize))

	require.Len(t, collector.replies, 2)
	for _, reply := range collector.replies {
		assert.Equal(t, messaging.OutcomeSuccess, reply.Outcome, reply.Reason)
	}
	var ticketReply api.CreateTicketReply
	require.NoError(t, collector.replies[0].UnmarshalPayload(&ticketReply))
	assert.Equal(t, created.OrderID, ticketReply.TicketID)
	assert.Len(t, f.eventTypes(events.AggregateTypeTicket), ticketEvents)
	assert.Len(t, f.account(t).Authorizations, 1)

	// the orchestrator sees them as duplicates of replies it already handled
	for _, reply := range collector.replies {
		f.Bus.Redeliver(f.ctx, reply.ToEvent())
	}
	assert.Equal(t, saga.SagaStatusCompleted, f.saga(t, created.SagaID).Status)
	assert.Equal(t, orderdomain.OrderStateApproved, f.order(t, created.OrderID).State)
	assert.Equal(t, kitchendomain.TicketStateAwaitingAcceptance, f.ticket(t, created.OrderID).State)
	assert.Empty(t, f.Bus.Errors())
}
