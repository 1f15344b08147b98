// Package integration runs the slot backends against real PostgreSQL and Redis
// servers started with testcontainers. Every test is skipped under -short.
package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shipshape/backend/internal/infrastructure/kvstore"
)

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test; run without -short")
	}
}

// StartPostgres starts a PostgreSQL container and returns its DSN
func StartPostgres(t *testing.T) string {
	t.Helper()
	skipShort(t)
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("shipshape_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	return dsn
}

// StartRedis starts a Redis container and returns host:port
func StartRedis(t *testing.T) string {
	t.Helper()
	skipShort(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

// OpenPostgresSlots opens a SQL slot store on dsn as context contextID
func OpenPostgresSlots(t *testing.T, dsn, contextID string) *kvstore.SQLStore {
	t.Helper()

	db, err := kvstore.NewDatabaseWithDialector(gormpostgres.Open(dsn), zap.NewNop(), gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := kvstore.NewSQLStore(context.Background(), db.DB,
		kvstore.WithSQLContextID(contextID),
		kvstore.WithPollInterval(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// OpenRedisSlots opens a Redis slot store on addr as context contextID
func OpenRedisSlots(t *testing.T, addr, contextID string) *kvstore.RedisStore {
	t.Helper()

	store, err := kvstore.NewRedisStore(context.Background(), addr, "", 0,
		kvstore.WithRedisChannel("shipshape:test"),
		kvstore.WithRedisContextID(contextID))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
