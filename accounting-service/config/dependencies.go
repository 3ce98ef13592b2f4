package config

import (
	"context"

	"github.com/ftgo/order-system/accounting-service/application"
	"github.com/ftgo/order-system/accounting-service/handlers"
	"github.com/ftgo/order-system/accounting-service/infrastructure"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/platform"
)

type Dependencies struct {
	Runtime *platform.Runtime

	AccountRepository *infrastructure.PostgresAccountRepository

	// HTTP Handlers
	AccountHandlers *handlers.AccountHandlers
}

func BuildDependencies(ctx context.Context, cfg *Config) (*Dependencies, error) {
	rt, err := platform.New(ctx, cfg.Base)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Runtime:           rt,
		AccountRepository: infrastructure.NewPostgresAccountRepository(rt.DB),
	}

	rt.Dispatcher(api.AccountingServiceChannel,
		application.NewAccountingCommandHandlers(deps.AccountRepository, rt.Events).Handlers())
	rt.Router.Subscribe(events.EventsChannel(events.AggregateTypeConsumer),
		handlers.NewConsumerEventHandlers(application.NewOpenAccount(deps.AccountRepository, rt.Events)))

	deps.AccountHandlers = handlers.NewAccountHandlers(
		application.NewGetAccount(deps.AccountRepository),
		application.NewConfigureAccount(deps.AccountRepository, rt.Events),
	)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	return d.Runtime.Close()
}
