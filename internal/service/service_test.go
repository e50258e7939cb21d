package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atelierworks/storefront/internal/models"
	"github.com/atelierworks/storefront/internal/repo"
)

// newTestRepo opens a fresh in-memory database per test. The pool is pinned to
// one connection so every goroutine sees the same memory database.
func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() { sqlDB.Close() })
	return repo.NewGormRepo(db)
}

func createTestUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{
		ExternalID: uuid.NewString(),
		Email:      email,
		Role:       "user",
	}
	require.NoError(t, r.CreateUserWithCart(context.Background(), u))
	return u
}

func createTestProduct(t *testing.T, r *repo.GormRepo, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func requireDecimalEqual(t *testing.T, expected string, got decimal.Decimal) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	require.Truef(t, want.Equal(got), "expected %s, got %s", want, got)
}
