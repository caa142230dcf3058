// Package config содержит логику чтения конфигурации административной панели магазина.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultPushEndpoint задаёт адрес сервиса доставки push-уведомлений Expo.
const DefaultPushEndpoint = "https://exp.host/--/api/v2/push/send"

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress         string        `env:"RUN_ADDRESS"`
	DatabaseURI        string        `env:"DATABASE_URI"`
	DatabaseMaxConns   int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	PushEndpoint       string        `env:"PUSH_ENDPOINT"`
	PushRetryMax       int           `env:"PUSH_RETRY_MAX" envDefault:"0"`
	KafkaBrokers       string        `env:"KAFKA_BROKERS"`
	KafkaTopic         string        `env:"KAFKA_TOPIC" envDefault:"storeadmin.orders"`
	SessionSecret      string        `env:"SESSION_SECRET"`
	RedeliveryInterval time.Duration `env:"REDELIVERY_INTERVAL" envDefault:"30s"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envPushEndpoint := cfg.PushEndpoint
	envKafkaBrokers := cfg.KafkaBrokers
	envSessionSecret := cfg.SessionSecret

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.PushEndpoint, "p", DefaultPushEndpoint, "push delivery endpoint")
	flag.StringVar(&cfg.KafkaBrokers, "k", "", "comma separated kafka brokers")
	flag.StringVar(&cfg.SessionSecret, "s", "", "session cookie signing secret")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envPushEndpoint != "" {
		cfg.PushEndpoint = envPushEndpoint
	}
	if envKafkaBrokers != "" {
		cfg.KafkaBrokers = envKafkaBrokers
	}
	if envSessionSecret != "" {
		cfg.SessionSecret = envSessionSecret
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.PushEndpoint == "" {
		cfg.PushEndpoint = DefaultPushEndpoint
	}
	if cfg.PushRetryMax < 0 {
		return nil, fmt.Errorf("push retry max must not be negative: %d", cfg.PushRetryMax)
	}

	return cfg, nil
}
