package repo

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrEmptyCart is returned by CreateOrderFromCart when the cart has no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition is returned when an order status change is not
	// allowed from the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

type GormRepo struct {
	DB *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// lockForUpdate takes row locks where the dialect supports them. sqlite has no
// row-level locks and rejects FOR UPDATE; its single writer serializes anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
