package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	consumerapp "github.com/ftgo/order-system/consumer-service/application"
	orderapp "github.com/ftgo/order-system/order-service/application"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/config"
	"github.com/ftgo/order-system/shared/logger"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/platform"
	"github.com/ftgo/order-system/system"
	"github.com/pkg/errors"
)

type demoConfig struct {
	config.Base `mapstructure:",squash"`
	Order       struct {
		OrderMinimum int64 `mapstructure:"order_minimum"`
	} `mapstructure:"order"`
}

func main() {
	var cfg demoConfig
	if err := config.NewLoader("saga-demo", "DEMO", "8080").Load(&cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync()

	s, err := system.New(system.Options{OrderMinimum: cfg.Order.OrderMinimum, Logger: logr})
	if err != nil {
		logr.Fatal("failed to wire services", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seed(ctx, s); err != nil {
		logr.Fatal("failed to seed demo data", "error", err)
	}

	rt := platform.NewLocal(cfg.Base, logr)
	if err := rt.Run(ctx, rt.HTTPRouter(s.Routes()...)); err != nil {
		logr.Error("demo stopped with error", "error", err)
	}
}

// seed registers a consumer and a restaurant and places one order so the
// HTTP API has something to show
func seed(ctx context.Context, s *system.System) error {
	consumer, err := s.RegisterConsumer.Execute(ctx, &consumerapp.RegisterConsumerCommand{Name: "Demo Consumer"})
	if err != nil {
		return errors.Wrap(err, "register consumer")
	}

	restaurantID := models.GenerateUUID()
	err = s.PublishRestaurant(ctx, restaurantID, "Ajanta", []api.MenuItem{
		{ID: "chicken-vindaloo", Name: "Chicken Vindaloo", Price: models.NewMoney(1234, models.DefaultCurrency)},
		{ID: "naan", Name: "Garlic Naan", Price: models.NewMoney(350, models.DefaultCurrency)},
	})
	if err != nil {
		return errors.Wrap(err, "publish restaurant")
	}

	order, err := s.CreateOrder.Execute(ctx, &orderapp.CreateOrderCommand{
		ConsumerID:      consumer.ConsumerID.String(),
		RestaurantID:    restaurantID.String(),
		DeliveryTime:    time.Now().Add(time.Hour),
		DeliveryAddress: "9 Main Street",
		LineItems: []api.LineItemQuantity{
			{MenuItemID: "chicken-vindaloo", Quantity: 2},
			{MenuItemID: "naan", Quantity: 3},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create order")
	}

	current, err := s.GetOrder.Execute(ctx, &orderapp.GetOrderQuery{OrderID: order.OrderID.String()})
	if err != nil {
		return errors.Wrap(err, "get order")
	}

	s.Logger.Info("demo data ready",
		"consumer_id", consumer.ConsumerID,
		"restaurant_id", restaurantID,
		"order_id", order.OrderID,
		"saga_id", order.SagaID,
		"order_state", current.State,
		"order_total", current.OrderTotal.String(),
	)
	return nil
}
