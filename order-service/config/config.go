package config

import (
	sharedconfig "github.com/ftgo/order-system/shared/config"
)

type Config struct {
	sharedconfig.Base `mapstructure:",squash"`
	Saga              sharedconfig.Saga `mapstructure:"saga"`
	Order             Order             `mapstructure:"order"`
}

type Order struct {
	// OrderMinimum is the revised total at or above which a revision is
	// rejected
	OrderMinimum int64 `mapstructure:"order_minimum"`
}

func ReadConfig() (*Config, error) {
	var cfg Config
	if err := sharedconfig.NewLoader("order-service", "ORDER", "8080").Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
