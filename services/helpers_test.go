package services

import (
	"testing"
	"time"

	"github.com/kendall-kelly/delivery-tracker-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, time.May, 14, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// every pooled connection to :memory: would otherwise be a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, phone, first, last string, role models.Role, status models.UserStatus) models.User {
	t.Helper()
	user := models.User{
		Phone:      phone,
		FirstName:  first,
		LastName:   last,
		Role:       role,
		Status:     status,
		IsVerified: status == models.UserActive,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func actorFor(u models.User) Actor {
	return Actor{ID: u.ID, Name: u.FullName(), Role: u.Role}
}

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func moneyPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(s string) *string {
	return &s
}
