package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atelierworks/storefront/internal/models"
)

// GetOrCreateCart returns the user's cart, inserting one if none exists yet.
// The unique index on carts.user_id plus ON CONFLICT DO NOTHING keeps two
// concurrent first requests from creating two carts; the loser of the race
// simply reads the winner's row back.
func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&cart)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// refetch into a zero-value dest: reusing cart would add its
		// never-inserted BeforeCreate id to the query conditions
		var existing models.Cart
		if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return &cart, nil
}

// AddItem merges a product into the cart: an existing (cart, product) row gets
// its quantity incremented atomically, otherwise a new row is inserted. The
// increment happens in the database, not in a read-modify-write round trip, so
// two concurrent adds both land.
func (r *GormRepo) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity uint) (*models.CartItem, error) {
	var stored models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", quantity),
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&item)
		if res.Error != nil {
			return res.Error
		}
		// on the merge path the row keeps its original id, so the refetch
		// must not carry item's fresh BeforeCreate id in its conditions
		if err := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&stored).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// SetItemQuantity replaces the quantity of an item, resolved through the
// owning cart so a foreign item id reads as not found.
func (r *GormRepo) SetItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND cart_id = ?", itemID, cartID).
			Updates(map[string]any{
				"quantity":   quantity,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes one item from the cart. A missing or foreign item id is
// gorm.ErrRecordNotFound.
func (r *GormRepo) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return touchCart(tx, cartID)
	})
}

// ClearCart deletes every item in the cart. Clearing an already empty cart is
// a no-op success.
func (r *GormRepo) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
}

func (r *GormRepo) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func touchCart(tx *gorm.DB, cartID uuid.UUID) error {
	return tx.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).Error
}
