package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atelierworks/storefront/internal/models"
)

// CreateOrderFromCart converts the cart's current contents into an order in a
// single transaction: snapshot the lines under a row lock, read the live
// catalog price per product, insert the order with frozen per-line prices and
// delete exactly the snapshotted cart rows. Any failure rolls the whole thing
// back and leaves the cart intact. An item added concurrently after the
// snapshot keeps its row and lands in the now-fresh cart.
func (r *GormRepo) CreateOrderFromCart(ctx context.Context, userID, cartID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := lockForUpdate(tx).Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		snapshotIDs := make([]uuid.UUID, 0, len(items))
		for _, it := range items {
			var p models.Product
			if err := tx.First(&p, "id = ?", it.ProductID).Error; err != nil {
				return err
			}
			line := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			total = total.Add(line)
			orderItems = append(orderItems, models.OrderItem{
				ProductID: it.ProductID,
				Name:      p.Name,
				UnitPrice: p.Price,
				Quantity:  it.Quantity,
			})
			snapshotIDs = append(snapshotIDs, it.ID)
		}

		order = models.Order{
			UserID: userID,
			Status: models.OrderStatusPending,
			Total:  total,
			Items:  orderItems,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if err := tx.Where("id IN ?", snapshotIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionOrderStatus moves an order out of PENDING. The status check sits
// in the UPDATE's WHERE clause so a concurrent transition cannot double-apply;
// zero rows affected means either the order is unknown to this user or it has
// already left PENDING.
func (r *GormRepo) TransitionOrderStatus(ctx context.Context, userID, orderID uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND user_id = ? AND status = ?", orderID, userID, models.OrderStatusPending).
			Updates(map[string]any{
				"status":     to,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var exists models.Order
			if err := tx.Select("id").Where("id = ? AND user_id = ?", orderID, userID).First(&exists).Error; err != nil {
				return err
			}
			return ErrInvalidTransition
		}
		return tx.Preload("Items").Where("id = ?", orderID).First(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SalesSummary aggregates the admin dashboard numbers.
type SalesSummary struct {
	Revenue        decimal.Decimal            `json:"revenue"`
	OrdersByStatus map[models.OrderStatus]int `json:"orders_by_status"`
	ProductCount   int64                      `json:"product_count"`
	UserCount      int64                      `json:"user_count"`
}

func (r *GormRepo) GetSalesSummary(ctx context.Context) (*SalesSummary, error) {
	summary := &SalesSummary{
		Revenue:        decimal.Zero,
		OrdersByStatus: make(map[models.OrderStatus]int),
	}

	var revenue decimal.NullDecimal
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("SUM(total)").
		Where("status = ?", models.OrderStatusCompleted).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue.Valid {
		summary.Revenue = revenue.Decimal
	}

	var rows []struct {
		Status models.OrderStatus
		Count  int
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		summary.OrdersByStatus[row.Status] = row.Count
	}

	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&summary.ProductCount).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&summary.UserCount).Error; err != nil {
		return nil, err
	}
	return summary, nil
}
