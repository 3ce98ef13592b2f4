package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ftgo/order-system/order-service/config"
)

func main() {
	cfg, err := config.ReadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := config.BuildDependencies(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build dependencies: %v", err)
	}
	rt := deps.Runtime
	defer func() {
		if err := deps.Close(); err != nil {
			log.Printf("Error closing dependencies: %v", err)
		}
	}()

	rt.Logger.Info("starting", "env", cfg.Env, "port", cfg.Port)

	if err := rt.Run(ctx, rt.HTTPRouter(deps.OrderHandlers.RegisterRoutes)); err != nil {
		rt.Logger.Error("service stopped with error", "error", err)
		return
	}

	rt.Logger.Info("stopped")
}
