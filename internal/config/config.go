package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Dedupe backend identifiers accepted in DEDUPE_BACKEND.
const (
	DedupeBackendMemory   = "memory"
	DedupeBackendRedis    = "redis"
	DedupeBackendPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Webhook  WebhookConfig
	Publish  PublishConfig
	RabbitMQ RabbitMQConfig
	Dedupe   DedupeConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Host        string
	Port        string
	Concurrency int
}

type WebhookConfig struct {
	// SigningSecret is the shared secret the provider signs payloads with.
	SigningSecret string
	// Tolerance is the accepted clock skew on the signature timestamp.
	Tolerance time.Duration
}

type PublishConfig struct {
	Exchange   string
	RoutingKey string
	// Timeout bounds a single publish, including the broker confirm. It must
	// stay below the provider's delivery deadline so a hung broker surfaces
	// as a publish failure instead of an upstream timeout.
	Timeout time.Duration
}

type RabbitMQConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	VHost    string
}

type DedupeConfig struct {
	Backend    string
	TTL        time.Duration
	MaxEntries int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	URL string
}

// Load reads configuration from the environment. All required values are
// collected before returning so a single run reports every missing variable.
func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	getDefault := func(key, def string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return def
	}

	config := &Config{
		Server: ServerConfig{
			Host: getDefault("SERVER_HOST", "0.0.0.0"),
			Port: getDefault("SERVER_PORT", "8080"),
		},
		Webhook: WebhookConfig{
			SigningSecret: get("SIGNING_SECRET"),
		},
		Publish: PublishConfig{
			Exchange:   os.Getenv("PUBLISH_EXCHANGE"),
			RoutingKey: get("PUBLISH_ROUTING_KEY"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: os.Getenv("RABBITMQ_URL"),
		},
		Dedupe: DedupeConfig{
			Backend: getDefault("DEDUPE_BACKEND", DedupeBackendMemory),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
	}

	// Individual connection parts are only required when no URL is given.
	if config.RabbitMQ.URL == "" {
		config.RabbitMQ.Host = get("RABBITMQ_HOST")
		config.RabbitMQ.Port = get("RABBITMQ_PORT")
		config.RabbitMQ.User = get("RABBITMQ_USER")
		config.RabbitMQ.Password = get("RABBITMQ_PASSWORD")
		config.RabbitMQ.VHost = get("RABBITMQ_VHOST")
	}

	switch config.Dedupe.Backend {
	case DedupeBackendMemory:
	case DedupeBackendRedis:
		config.Redis.URL = get("REDIS_URL")
	case DedupeBackendPostgres:
		config.Database = DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  getDefault("DB_SSLMODE", "disable"),
		}
	default:
		return nil, fmt.Errorf("invalid DEDUPE_BACKEND %q: must be %s, %s or %s",
			config.Dedupe.Backend, DedupeBackendMemory, DedupeBackendRedis, DedupeBackendPostgres)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	var err error
	if config.Webhook.Tolerance, err = parseDuration("SIGNATURE_TOLERANCE", 5*time.Minute); err != nil {
		return nil, err
	}
	if config.Publish.Timeout, err = parseDuration("PUBLISH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.Dedupe.TTL, err = parseDuration("DEDUPE_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if config.Dedupe.MaxEntries, err = parseInt("DEDUPE_MAX_ENTRIES", 10000); err != nil {
		return nil, err
	}
	if config.Server.Concurrency, err = parseInt("SERVER_CONCURRENCY", 0); err != nil {
		return nil, err
	}

	return config, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, val)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, val)
	}
	return n, nil
}

// ConnectionString returns a DSN string for GORM
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

func (c *RabbitMQConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s%s",
		c.User, c.Password, c.Host, c.Port, c.VHost)
}
