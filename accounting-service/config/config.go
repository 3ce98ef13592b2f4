package config

import (
	sharedconfig "github.com/ftgo/order-system/shared/config"
)

type Config struct {
	sharedconfig.Base `mapstructure:",squash"`
}

func ReadConfig() (*Config, error) {
	var cfg Config
	if err := sharedconfig.NewLoader("accounting-service", "ACCOUNTING", "8082").Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
