package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atelierworks/storefront/internal/models"
	"github.com/atelierworks/storefront/internal/repo"
	"github.com/atelierworks/storefront/pkg/logging"
)

// CartService owns every read and mutation of a user's cart. All item lookups
// go through the caller's own cart row, so a bare item id from another user's
// cart reads as not found.
type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required: %w", ErrUnauthenticated)
	}
	return s.Repo.GetOrCreateCart(ctx, userID)
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity uint) (*models.CartItem, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id required: %w", ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
		}
		return nil, err
	}

	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.AddItem(ctx, cart.ID, productID, quantity)
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity uint) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.Repo.SetItemQuantity(ctx, cart.ID, itemID, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}
	return item, err
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Repo.RemoveItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return err
	}
	return nil
}

// ClearCart empties the cart. It succeeds even when the cart does not exist
// yet or is already empty.
func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.Repo.ClearCart(ctx, cart.ID)
}

type CartViewItem struct {
	ID       uuid.UUID       `json:"id"`
	Product  *models.Product `json:"product,omitempty"`
	Quantity uint            `json:"quantity"`
	Unpriced bool            `json:"unpriced,omitempty"`
}

type CartView struct {
	CartID      uuid.UUID       `json:"cart_id"`
	Items       []CartViewItem  `json:"items"`
	ItemCount   uint            `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// View projects the cart with live catalog prices. A line whose product can no
// longer be priced is annotated instead of failing the whole view; display
// pricing is lower-stakes than checkout pricing.
func (s *CartService) View(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		CartID:      cart.ID,
		Items:       make([]CartViewItem, 0, len(items)),
		TotalAmount: decimal.Zero,
	}
	l := logging.FromContext(ctx).With("svc", "cart.view")
	for _, it := range items {
		entry := CartViewItem{ID: it.ID, Quantity: it.Quantity}
		p, err := s.Repo.GetProduct(ctx, it.ProductID)
		if err != nil {
			l.Warn("unpriced cart line", "cart_item", it.ID, "product", it.ProductID, "error", err)
			entry.Unpriced = true
		} else {
			entry.Product = p
			view.TotalAmount = view.TotalAmount.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		view.ItemCount += it.Quantity
		view.Items = append(view.Items, entry)
	}
	return view, nil
}
