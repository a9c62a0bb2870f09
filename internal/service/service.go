package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/config"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/database"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/dedupe"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/publisher"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/rabbitmq"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/signature"
)

// Service holds all application dependencies. Everything here is created
// once at process start and shared across requests.
type Service struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     dedupe.Store
	Bus       *rabbitmq.Connection
	Publisher publisher.Publisher
	Verifier  *signature.Verifier
}

// New builds the dependency graph: dedupe backend per configuration, bus
// connection, publisher and verifier.
func New(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	store, err := newDedupeStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dedupe store: %w", err)
	}

	bus := rabbitmq.NewConnection(&cfg.RabbitMQ, logger)
	if err := bus.Connect(); err != nil {
		store.Close()
		return nil, err
	}

	return &Service{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Bus:       bus,
		Publisher: publisher.New(bus, &cfg.Publish),
		Verifier:  signature.NewVerifier(cfg.Webhook.SigningSecret, cfg.Webhook.Tolerance),
	}, nil
}

// Close releases the shared collaborators. Safe to call once at shutdown.
func (s *Service) Close() {
	s.Bus.Close()
	if err := s.Store.Close(); err != nil {
		s.Logger.Error("Error closing dedupe store", zap.Error(err))
	}
}

// newDedupeStore selects the dedupe backend once at startup, keeping the
// request path free of backend conditionals.
func newDedupeStore(cfg *config.Config, logger *zap.Logger) (dedupe.Store, error) {
	switch cfg.Dedupe.Backend {
	case config.DedupeBackendMemory:
		logger.Info("Using in-memory dedupe store",
			zap.Duration("ttl", cfg.Dedupe.TTL),
			zap.Int("max_entries", cfg.Dedupe.MaxEntries),
		)
		return dedupe.NewMemoryStore(cfg.Dedupe.TTL, cfg.Dedupe.MaxEntries), nil

	case config.DedupeBackendRedis:
		logger.Info("Using Redis dedupe store")
		return dedupe.NewRedisStore(cfg.Redis.URL)

	case config.DedupeBackendPostgres:
		logger.Info("Using PostgreSQL dedupe store",
			zap.String("database", cfg.Database.DBName),
		)
		db, err := database.Connect(&cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db, logger); err != nil {
			database.Close(db, logger)
			return nil, err
		}
		return dedupe.NewPostgresStore(db), nil

	default:
		return nil, fmt.Errorf("unknown dedupe backend %q", cfg.Dedupe.Backend)
	}
}
