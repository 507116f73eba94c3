// internal/services/helper_test.go
package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/shop-backend/internal/models"
)

// newTestDB opens a fresh in-memory database. A single connection keeps
// every goroutine on the same database and serializes writes, so the
// concurrency tests exercise the conditional-update logic rather than
// connection pooling.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Variation{},
		&models.VariationOption{},
		&models.Rating{},
		&models.Order{},
		&models.OrderItem{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     models.UserRoleCustomer,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

var skuCounter int64

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:        name,
		Description: "A product used by the test fixtures.",
		SKU:         fmt.Sprintf("SKU-%04d", atomic.AddInt64(&skuCounter, 1)),
		Price:       price,
		Stock:       stock,
		IsActive:    true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
