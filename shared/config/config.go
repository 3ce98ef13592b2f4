// Package config loads service configuration through viper. Every service
// embeds Base in its own Config and registers its defaults before Load.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Base struct {
	ServiceName string    `mapstructure:"service_name"`
	Env         string    `mapstructure:"env"`
	Port        string    `mapstructure:"port"`
	Database    Database  `mapstructure:"database"`
	AWS         AWS       `mapstructure:"aws"`
	Redis       Redis     `mapstructure:"redis"`
	Telemetry   Telemetry `mapstructure:"telemetry"`
	Outbox      Outbox    `mapstructure:"outbox"`
}

type Database struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type AWS struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	EndpointSNS     string `mapstructure:"endpoint_sns"`
	EndpointSQS     string `mapstructure:"endpoint_sqs"`
	SNSTopicArn     string `mapstructure:"sns_topic_arn"`
	SQSQueueURL     string `mapstructure:"sqs_queue_url"`
}

type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	DedupTTL time.Duration `mapstructure:"dedup_ttl"`
}

type Telemetry struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type Outbox struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// Saga holds the orchestrator settings of the order service
type Saga struct {
	WatchdogInterval time.Duration `mapstructure:"watchdog_interval"`
	StaleAfter       time.Duration `mapstructure:"stale_after"`
}

// Loader reads one service's configuration
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader for serviceName. Environment variables prefixed
// with envPrefix override file values, e.g. ORDER_DATABASE_HOST.
func NewLoader(serviceName, envPrefix, defaultPort string) *Loader {
	v := viper.New()
	v.SetConfigName(configName())
	v.SetConfigType("json")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l := &Loader{v: v}
	l.setBaseDefaults(serviceName, defaultPort)
	return l
}

// SetDefault registers a service-specific default
func (l *Loader) SetDefault(key string, value interface{}) {
	l.v.SetDefault(key, value)
}

// Load reads the config file, when present, and decodes it into target
func (l *Loader) Load(target interface{}) error {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(target); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	return nil
}

func configName() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "local"
	}
	return env
}

func (l *Loader) setBaseDefaults(serviceName, defaultPort string) {
	v := l.v

	v.SetDefault("service_name", serviceName)
	v.SetDefault("env", getEnv("ENV", "local"))
	v.SetDefault("port", defaultPort)

	v.SetDefault("database.url", os.Getenv("DATABASE_URL"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "ftgo")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("aws.access_key_id", getEnv("AWS_ACCESS_KEY_ID", "test"))
	v.SetDefault("aws.secret_access_key", getEnv("AWS_SECRET_ACCESS_KEY", "test"))
	v.SetDefault("aws.region", getEnv("AWS_DEFAULT_REGION", "us-east-1"))
	v.SetDefault("aws.endpoint_sns", getEnv("AWS_ENDPOINT_URL_SNS", "http://localhost:4566"))
	v.SetDefault("aws.endpoint_sqs", getEnv("AWS_ENDPOINT_URL_SQS", "http://localhost:4566"))
	v.SetDefault("aws.sns_topic_arn", getEnv("SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:000000000000:ftgo-messages"))
	v.SetDefault("aws.sqs_queue_url", "http://localhost:4566/000000000000/"+serviceName)

	v.SetDefault("redis.addr", getEnv("REDIS_ADDR", "localhost:6379"))
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dedup_ttl", 24*time.Hour)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.otlp_endpoint", getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""))

	v.SetDefault("outbox.poll_interval", 500*time.Millisecond)
	v.SetDefault("outbox.batch_size", 100)

	v.SetDefault("saga.watchdog_interval", time.Minute)
	v.SetDefault("saga.stale_after", 10*time.Minute)

	v.SetDefault("order.order_minimum", int64(math.MaxInt64))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetDatabaseURL constructs database URL from config
func (b *Base) GetDatabaseURL() string {
	if b.Database.URL != "" {
		return b.Database.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		b.Database.User,
		b.Database.Password,
		b.Database.Host,
		b.Database.Port,
		b.Database.Database,
		b.Database.SSLMode,
	)
}

// IsProduction reports whether the service runs with production settings
func (b *Base) IsProduction() bool {
	return b.Env == "prod" || b.Env == "production"
}
