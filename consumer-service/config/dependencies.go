package config

import (
	"context"

	"github.com/ftgo/order-system/consumer-service/application"
	"github.com/ftgo/order-system/consumer-service/handlers"
	"github.com/ftgo/order-system/consumer-service/infrastructure"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/platform"
)

type Dependencies struct {
	Runtime *platform.Runtime

	ConsumerRepository *infrastructure.PostgresConsumerRepository

	// HTTP Handlers
	ConsumerHandlers *handlers.ConsumerHandlers
}

func BuildDependencies(ctx context.Context, cfg *Config) (*Dependencies, error) {
	rt, err := platform.New(ctx, cfg.Base)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Runtime:            rt,
		ConsumerRepository: infrastructure.NewPostgresConsumerRepository(rt.DB),
	}

	rt.Dispatcher(api.ConsumerServiceChannel,
		application.NewConsumerCommandHandlers(deps.ConsumerRepository).Handlers())

	deps.ConsumerHandlers = handlers.NewConsumerHandlers(
		application.NewRegisterConsumer(deps.ConsumerRepository, rt.Events, rt.TxManager),
		application.NewGetConsumer(deps.ConsumerRepository),
		application.NewSuspendConsumer(deps.ConsumerRepository),
	)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	return d.Runtime.Close()
}
