package telemetry

// Predefined service configurations
var (
	// OrderServiceConfig is the telemetry configuration for the order service
	OrderServiceConfig = Config{
		ServiceName:    "order-service",
		ServiceVersion: "1.0.0",
	}

	// KitchenServiceConfig is the telemetry configuration for the kitchen service
	KitchenServiceConfig = Config{
		ServiceName:    "kitchen-service",
		ServiceVersion: "1.0.0",
	}

	// AccountingServiceConfig is the telemetry configuration for the accounting service
	AccountingServiceConfig = Config{
		ServiceName:    "accounting-service",
		ServiceVersion: "1.0.0",
	}

	ConsumerServiceConfig = Config{
		ServiceName:    "consumer-service",
		ServiceVersion: "1.0.0",
	}

	// DefaultConfig is the default telemetry configuration
	DefaultConfig = Config{
		ServiceName:    "unknown-service",
		ServiceVersion: "1.0.0",
	}
)

// ForService returns the predefined configuration for serviceName
func ForService(serviceName string) Config {
	for _, config := range []Config{OrderServiceConfig, KitchenServiceConfig, AccountingServiceConfig, ConsumerServiceConfig} {
		if config.ServiceName == serviceName {
			return config
		}
	}
	return NewConfigForService(serviceName, DefaultConfig.ServiceVersion, "")
}

// NewConfigForService creates a new telemetry config for a custom service
func NewConfigForService(serviceName, version, otlpEndpoint string) Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		OTLPEndpoint:   otlpEndpoint,
	}
}

// WithOTLPEndpoint sets the OTLP endpoint for a config
func (c Config) WithOTLPEndpoint(endpoint string) Config {
	c.OTLPEndpoint = endpoint
	return c
}

// WithVersion sets the service version for a config
func (c Config) WithVersion(version string) Config {
	c.ServiceVersion = version
	return c
}
