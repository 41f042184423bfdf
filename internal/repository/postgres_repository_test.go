package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/donations/api/internal/config"
	"github.com/stwalsh4118/donations/api/internal/database"
)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "donations"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		SSLMode:  "disable",
		PoolMin:  1,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupPostgresRepository migrates the test database and returns an empty
// repository, or skips when PostgreSQL is not reachable.
func setupPostgresRepository(t *testing.T) DatasetRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := getTestConfig()
	db, err := database.NewPostgresPool(ctx, cfg)
	if err != nil {
		t.Skipf("PostgreSQL not reachable: %v", err)
	}
	require.NoError(t, database.RunMigrations(cfg))

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.Clear(context.Background()))
	t.Cleanup(func() {
		_ = repo.Clear(context.Background())
		_ = repo.Close()
	})
	return repo
}

func TestPostgresRepository(t *testing.T) {
	runRepositoryContract(t, setupPostgresRepository)
}
