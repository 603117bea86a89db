package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/shopfront/gateway"
	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/discovery"
	"github.com/example/shopfront/pkg/events"
	shopgrpc "github.com/example/shopfront/pkg/grpc"
	"github.com/example/shopfront/pkg/logger"
	"github.com/example/shopfront/pkg/repository"
	"github.com/example/shopfront/pkg/service"
	"go.uber.org/zap"
)

func configPath() string {
	if p := os.Getenv("SHOP_CONFIG"); p != "" {
		return p
	}
	return "config/config.yaml"
}

// healthDependencies lists what the gRPC health check pings. Disabled
// components are passed as nil.
func healthDependencies(store *repository.Store, redisStore *repository.RedisSessionStore, mongoLog *repository.MongoAuditLog) map[string]shopgrpc.Pinger {
	deps := map[string]shopgrpc.Pinger{"database": store}
	if redisStore != nil {
		deps["redis"] = redisStore
	}
	if mongoLog != nil {
		deps["mongodb"] = mongoLog
	}
	return deps
}

func main() {
	// Load config
	cfg, err := config.Load(configPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	log, err := logger.New(&cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting shop API",
		zap.String("name", cfg.Server.Name),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Driver))

	db, err := repository.OpenDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	store := repository.NewStore(db)
	defer store.Close()

	ctx := context.Background()

	var redisStore *repository.RedisSessionStore
	var sessions repository.SessionStore = repository.NopSessionStore{}
	if cfg.Redis.Enabled {
		redisStore = repository.NewRedisSessionStore(&cfg.Redis)
		defer redisStore.Close()
		if err := redisStore.Ping(ctx); err != nil {
			log.Warn("Redis connection failed", zap.Error(err))
		} else {
			log.Info("Redis connected successfully")
		}
		sessions = redisStore
	}

	var mongoLog *repository.MongoAuditLog
	var audit repository.AuditLog = repository.NopAuditLog{}
	if cfg.MongoDB.Enabled {
		mongoLog, err = repository.NewMongoAuditLog(&cfg.MongoDB)
		if err != nil {
			log.Warn("MongoDB unavailable, audit log disabled", zap.Error(err))
			mongoLog = nil
		} else {
			defer mongoLog.Close(context.Background())
			audit = mongoLog
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(&cfg.Kafka, log)
		log.Info("Publishing order events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer publisher.Close()

	effects := service.NewEffects(audit, publisher, log)
	tokens := auth.NewTokenIssuer(&cfg.Auth)

	gw := gateway.NewGateway(cfg, log, gateway.Services{
		Users:    service.NewUserService(store, tokens, sessions, effects, log),
		Catalog:  service.NewCatalogService(store, log),
		Carts:    service.NewCartService(store),
		Orders:   service.NewOrderService(store, effects, log),
		Payments: service.NewPaymentService(store, effects, log),
		Reports:  service.NewReportService(store, nil, log),
		Audit:    service.NewAuditService(audit),
	})
	gw.SetupRoutes()

	serverErr := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			serverErr <- err
		}
	}()

	var ops *shopgrpc.Server
	if cfg.GRPC.Enabled {
		ops = shopgrpc.NewServer(&cfg.GRPC, shopgrpc.NewHealthServer(cfg.Server.Name, healthDependencies(store, redisStore, mongoLog), log), log)
		go func() {
			if err := ops.Start(); err != nil {
				serverErr <- err
			}
		}()
	}

	// Register in etcd
	var sd *discovery.ServiceDiscovery
	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	if cfg.Etcd.Enabled {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			log.Warn("Failed to register service", zap.Error(err))
		} else {
			log.Info("Service registered in etcd", zap.String("address", instance.Addr()))
		}
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			log.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}
	if ops != nil {
		ops.Stop()
	}

	log.Info("Shop API stopped")
}
