// Package system runs the order, kitchen, accounting and consumer services
// in one process over the in-memory bus with in-memory repositories. It
// backs the local demo and the end-to-end saga tests.
package system

import (
	"context"
	"math"

	accountingapp "github.com/ftgo/order-system/accounting-service/application"
	accountinghandlers "github.com/ftgo/order-system/accounting-service/handlers"
	accountinginfra "github.com/ftgo/order-system/accounting-service/infrastructure"
	consumerapp "github.com/ftgo/order-system/consumer-service/application"
	consumerhandlers "github.com/ftgo/order-system/consumer-service/handlers"
	consumerinfra "github.com/ftgo/order-system/consumer-service/infrastructure"
	kitchenapp "github.com/ftgo/order-system/kitchen-service/application"
	kitchenhandlers "github.com/ftgo/order-system/kitchen-service/handlers"
	kitcheninfra "github.com/ftgo/order-system/kitchen-service/infrastructure"
	orderapp "github.com/ftgo/order-system/order-service/application"
	orderhandlers "github.com/ftgo/order-system/order-service/handlers"
	orderinfra "github.com/ftgo/order-system/order-service/infrastructure"
	"github.com/ftgo/order-system/order-service/sagas"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/logger"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/saga"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// Options configures a System
type Options struct {
	// OrderMinimum is the revision threshold of the order service. Zero
	// leaves revisions unlimited.
	OrderMinimum int64
	Logger       *logger.Logger
}

// System is the composition root of the in-process deployment
type System struct {
	Bus    *messaging.Bus
	Logger *logger.Logger

	Orders      *orderinfra.MemoryOrderRepository
	Restaurants *orderinfra.MemoryRestaurantRepository
	Sagas       *saga.MemoryInstanceRepository
	Tickets     *kitcheninfra.MemoryTicketRepository
	Accounts    *accountinginfra.MemoryAccountRepository
	Consumers   *consumerinfra.MemoryConsumerRepository

	Orchestrator *saga.Orchestrator

	CreateOrder      *orderapp.CreateOrder
	CancelOrder      *orderapp.CancelOrder
	ReviseOrder      *orderapp.ReviseOrder
	GetOrder         *orderapp.GetOrder
	GetSaga          *orderapp.GetSaga
	RegisterConsumer *consumerapp.RegisterConsumer
	SuspendConsumer  *consumerapp.SuspendConsumer
	GetAccount       *accountingapp.GetAccount
	ConfigureAccount *accountingapp.ConfigureAccount
	TicketActions    *kitchenapp.TicketActions
	GetTicket        *kitchenapp.GetTicket

	events *events.DomainEventPublisher
	routes []func(chi.Router)
}

// New wires the four services onto one bus
func New(opts Options) (*System, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	orderMinimum := opts.OrderMinimum
	if orderMinimum == 0 {
		orderMinimum = math.MaxInt64
	}

	bus := messaging.NewBus()
	producer := messaging.NewProducer(bus)
	publisher := events.NewDomainEventPublisher(bus)

	s := &System{
		Bus:         bus,
		Logger:      log,
		Orders:      orderinfra.NewMemoryOrderRepository(),
		Restaurants: orderinfra.NewMemoryRestaurantRepository(),
		Sagas:       saga.NewMemoryInstanceRepository(),
		Tickets:     kitcheninfra.NewMemoryTicketRepository(),
		Accounts:    accountinginfra.NewMemoryAccountRepository(),
		Consumers:   consumerinfra.NewMemoryConsumerRepository(),
		events:      publisher,
	}

	orchestrator, err := saga.NewOrchestrator(s.Sagas, producer, sagas.Definitions(),
		saga.WithEventPublisher(publisher),
		saga.WithLogger(log.With("service", "order-service")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create saga orchestrator")
	}
	s.Orchestrator = orchestrator
	for _, channel := range orchestrator.ReplyChannels() {
		bus.Subscribe(channel, orchestrator)
	}

	dispatch := func(service, channel string, handlers messaging.CommandHandlers) {
		bus.Subscribe(channel, messaging.NewCommandDispatcher(service+"-"+channel, handlers, producer,
			messaging.WithProcessedStore(messaging.NewMemoryProcessedStore()),
			messaging.WithLogger(log.With("service", service)),
		))
	}

	// order service
	dispatch("order-service", api.OrderServiceChannel,
		orderapp.NewOrderCommandHandlers(s.Orders, publisher, orderMinimum).Handlers())
	bus.Subscribe(events.EventsChannel(events.AggregateTypeRestaurant),
		orderhandlers.NewRestaurantEventHandlers(orderapp.NewReplicateRestaurant(s.Restaurants)))
	s.CreateOrder = orderapp.NewCreateOrder(s.Orders, s.Restaurants, publisher, orchestrator, messaging.NoopTransactor{})
	s.CancelOrder = orderapp.NewCancelOrder(s.Orders, orchestrator)
	s.ReviseOrder = orderapp.NewReviseOrder(s.Orders, orchestrator)
	s.GetOrder = orderapp.NewGetOrder(s.Orders)
	s.GetSaga = orderapp.NewGetSaga(orchestrator)

	// kitchen service
	dispatch("kitchen-service", api.KitchenServiceChannel,
		kitchenapp.NewKitchenCommandHandlers(s.Tickets, publisher).Handlers())
	s.TicketActions = kitchenapp.NewTicketActions(s.Tickets, publisher)
	s.GetTicket = kitchenapp.NewGetTicket(s.Tickets)

	// accounting service
	dispatch("accounting-service", api.AccountingServiceChannel,
		accountingapp.NewAccountingCommandHandlers(s.Accounts, publisher).Handlers())
	bus.Subscribe(events.EventsChannel(events.AggregateTypeConsumer),
		accountinghandlers.NewConsumerEventHandlers(accountingapp.NewOpenAccount(s.Accounts, publisher)))
	s.GetAccount = accountingapp.NewGetAccount(s.Accounts)
	s.ConfigureAccount = accountingapp.NewConfigureAccount(s.Accounts, publisher)

	// consumer service
	dispatch("consumer-service", api.ConsumerServiceChannel,
		consumerapp.NewConsumerCommandHandlers(s.Consumers).Handlers())
	s.RegisterConsumer = consumerapp.NewRegisterConsumer(s.Consumers, publisher, messaging.NoopTransactor{})
	getConsumer := consumerapp.NewGetConsumer(s.Consumers)
	s.SuspendConsumer = consumerapp.NewSuspendConsumer(s.Consumers)

	s.routes = []func(chi.Router){
		orderhandlers.NewOrderHandlers(s.CreateOrder, s.CancelOrder, s.ReviseOrder, s.GetOrder, s.GetSaga).RegisterRoutes,
		kitchenhandlers.NewTicketHandlers(s.TicketActions, s.GetTicket).RegisterRoutes,
		accountinghandlers.NewAccountHandlers(s.GetAccount, s.ConfigureAccount).RegisterRoutes,
		consumerhandlers.NewConsumerHandlers(s.RegisterConsumer, getConsumer, s.SuspendConsumer).RegisterRoutes,
	}

	return s, nil
}

// Routes returns the HTTP routes of every service
func (s *System) Routes() []func(chi.Router) {
	return s.routes
}

// PublishRestaurant announces a restaurant the way the restaurant service
// does, which fills the order service replica
func (s *System) PublishRestaurant(ctx context.Context, restaurantID models.ID, name string, menu []api.MenuItem) error {
	event := events.NewEvent(restaurantID, events.RestaurantCreatedEvent, api.RestaurantCreated{
		RestaurantID: restaurantID,
		Name:         name,
		Menu:         menu,
	})
	return s.events.Publish(ctx, events.AggregateTypeRestaurant, restaurantID, []*events.Event{event})
}
