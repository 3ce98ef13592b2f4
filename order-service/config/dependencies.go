package config

import (
	"context"

	"github.com/ftgo/order-system/order-service/application"
	"github.com/ftgo/order-system/order-service/handlers"
	"github.com/ftgo/order-system/order-service/infrastructure"
	"github.com/ftgo/order-system/order-service/sagas"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/events"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/platform"
	"github.com/ftgo/order-system/shared/saga"
	"github.com/pkg/errors"
)

type Dependencies struct {
	Runtime *platform.Runtime

	// Repositories
	OrderRepository      *infrastructure.PostgresOrderRepository
	RestaurantRepository *infrastructure.PostgresRestaurantRepository
	SagaRepository       *sharedinfra.PostgresSagaRepository

	Orchestrator *saga.Orchestrator

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers
}

func BuildDependencies(ctx context.Context, cfg *Config) (*Dependencies, error) {
	rt, err := platform.New(ctx, cfg.Base)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Runtime:              rt,
		OrderRepository:      infrastructure.NewPostgresOrderRepository(rt.DB),
		RestaurantRepository: infrastructure.NewPostgresRestaurantRepository(rt.DB),
		SagaRepository:       sharedinfra.NewPostgresSagaRepository(rt.DB),
	}

	deps.Orchestrator, err = saga.NewOrchestrator(deps.SagaRepository, rt.Producer, sagas.Definitions(),
		saga.WithTransactor(rt.TxManager),
		saga.WithEventPublisher(rt.Events),
		saga.WithLogger(rt.Logger),
	)
	if err != nil {
		rt.Close()
		return nil, errors.Wrap(err, "failed to create saga orchestrator")
	}

	// Inbound
	for _, channel := range deps.Orchestrator.ReplyChannels() {
		rt.Router.Subscribe(channel, deps.Orchestrator)
	}
	rt.Dispatcher(api.OrderServiceChannel,
		application.NewOrderCommandHandlers(deps.OrderRepository, rt.Events, cfg.Order.OrderMinimum).Handlers())
	rt.Router.Subscribe(events.EventsChannel(events.AggregateTypeRestaurant),
		handlers.NewRestaurantEventHandlers(application.NewReplicateRestaurant(deps.RestaurantRepository)))

	rt.Go(saga.NewWatchdog(deps.SagaRepository, cfg.Saga.StaleAfter, cfg.Saga.WatchdogInterval, rt.Logger).Run)

	deps.OrderHandlers = handlers.NewOrderHandlers(
		application.NewCreateOrder(deps.OrderRepository, deps.RestaurantRepository, rt.Events, deps.Orchestrator, rt.TxManager),
		application.NewCancelOrder(deps.OrderRepository, deps.Orchestrator),
		application.NewReviseOrder(deps.OrderRepository, deps.Orchestrator),
		application.NewGetOrder(deps.OrderRepository),
		application.NewGetSaga(deps.Orchestrator),
	)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	return d.Runtime.Close()
}
