// Package app wires configuration into the storefront HTTP router.
package app

import (
	"storefront-service/config"
	"storefront-service/internal/api"
	"storefront-service/internal/broker"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/service"
	"storefront-service/internal/square"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App is a fully wired router plus the connections it owns.
type App struct {
	Router  *gin.Engine
	closers []func() error
}

// New builds the services and router. Redis and Kafka are optional: when
// unset or unreachable the catalog is served uncached and events are dropped.
func New(cfg *config.Config) *App {
	logger := util.GetLogger()
	a := &App{}

	var cache service.Cache
	if cfg.Redis.Addr != "" {
		rc, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
			cache = rc
			a.closers = append(a.closers, rc.Close)
		}
	}

	var publisher service.EventPublisher = broker.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		publisher = broker.NewEventPublisher(producer)
		a.closers = append(a.closers, producer.Close)
		logger.Info("Kafka producer initialized",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.TopicEvents))
	}

	if err := cfg.Square.Validate(); err != nil {
		logger.Warn("Square is not configured; API calls will fail", zap.Error(err))
	}

	client := square.NewClient(cfg.Square.AccessToken, cfg.Square.IsProduction())

	catalog := service.NewCatalogService(client, cache, cfg)
	checkout := service.NewCheckoutService(client, publisher, cfg)
	payments := service.NewPaymentService(client, publisher, cfg)

	handler := api.NewHandler(catalog, checkout, payments, cfg)
	a.Router = api.NewRouter(handler, cfg.Server.Env)
	return a
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			util.GetLogger().Error("Failed to close resource", zap.Error(err))
		}
	}
}
