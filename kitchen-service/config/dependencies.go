package config

import (
	"context"

	"github.com/ftgo/order-system/kitchen-service/application"
	"github.com/ftgo/order-system/kitchen-service/handlers"
	"github.com/ftgo/order-system/kitchen-service/infrastructure"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/platform"
)

type Dependencies struct {
	Runtime *platform.Runtime

	TicketRepository *infrastructure.PostgresTicketRepository

	// HTTP Handlers
	TicketHandlers *handlers.TicketHandlers
}

func BuildDependencies(ctx context.Context, cfg *Config) (*Dependencies, error) {
	rt, err := platform.New(ctx, cfg.Base)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Runtime:          rt,
		TicketRepository: infrastructure.NewPostgresTicketRepository(rt.DB),
	}

	rt.Dispatcher(api.KitchenServiceChannel,
		application.NewKitchenCommandHandlers(deps.TicketRepository, rt.Events).Handlers())

	deps.TicketHandlers = handlers.NewTicketHandlers(
		application.NewTicketActions(deps.TicketRepository, rt.Events),
		application.NewGetTicket(deps.TicketRepository),
	)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	return d.Runtime.Close()
}
