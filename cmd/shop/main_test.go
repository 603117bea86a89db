package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthDependencies(t *testing.T) {
	db, err := repository.OpenDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	store := repository.NewStore(db)
	defer store.Close()

	deps := healthDependencies(store, nil, nil)
	assert.Len(t, deps, 1)
	assert.Contains(t, deps, "database")

	redisStore := repository.NewRedisSessionStore(&config.RedisConfig{Addr: "127.0.0.1:0"})
	defer redisStore.Close()
	// the driver connects lazily, so no server is needed here
	mongoLog, err := repository.NewMongoAuditLog(&config.MongoDBConfig{
		URI:        "mongodb://127.0.0.1:1",
		Database:   "shop",
		Collection: "audit_logs",
	})
	require.NoError(t, err)
	defer mongoLog.Close(context.Background())

	deps = healthDependencies(store, redisStore, mongoLog)
	assert.Len(t, deps, 3)
	assert.Same(t, redisStore, deps["redis"])
	assert.Same(t, mongoLog, deps["mongodb"])
}
