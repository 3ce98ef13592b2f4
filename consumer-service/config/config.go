package config

import (
	sharedconfig "github.com/ftgo/order-system/shared/config"
)

type Config struct {
	sharedconfig.Base `mapstructure:",squash"`
}

func ReadConfig() (*Config, error) {
	var cfg Config
	if err := sharedconfig.NewLoader("consumer-service", "CONSUMER", "8083").Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
