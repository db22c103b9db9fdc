package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrationDir(t *testing.T) {
	dialect, dir, err := MigrationDir("postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", dialect)
	assert.Equal(t, "migrations/postgres", dir)

	_, _, err = MigrationDir("sqlite")
	assert.Error(t, err)
}

func TestMigratePostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("callcard"),
		postgres.WithUsername("callcard"),
		postgres.WithPassword("callcard"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer testcontainers.CleanupContainer(t, container)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	defer Close(db)

	log := zap.NewNop()
	require.NoError(t, Migrate(ctx, db, "postgres", log, "up"))
	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}

	// the server runs AutoMigrate on top of the SQL schema
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, Migrate(ctx, db, "postgres", log, "reset"))
	for _, m := range Models() {
		assert.False(t, db.Migrator().HasTable(m), "%T", m)
	}
}
