package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// Config returns a test configuration with a fixed session secret and
// installs it as the global configuration
func Config() *config.Config {
	cfg := &config.Config{
		DatabaseURL:     ":memory:",
		Port:            "8080",
		GoEnv:           "test",
		SessionSecret:   "integration-test-session-secret",
		SessionIssuer:   "delivery-tracker",
		SessionAudience: "delivery-tracker-api",
		SessionTTL:      time.Hour,
		CORSOrigins:     []string{"http://localhost:3000"},
		AWSRegion:       "us-east-1",
		LogLevel:        "error",
	}
	config.SetConfig(cfg)
	return cfg
}

// NewDB opens a migrated in-memory sqlite database and installs it as the global connection
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	RequireTestEnvironment(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// every pooled connection to :memory: would otherwise be a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	config.SetDB(db)
	return db
}
