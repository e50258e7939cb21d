package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierworks/storefront/internal/models"
	"github.com/atelierworks/storefront/internal/payment"
	"github.com/atelierworks/storefront/internal/repo"
	"github.com/atelierworks/storefront/pkg/logging"
)

// CheckoutService converts carts into orders. It never talks to the payment
// gateway itself; it hands back a manifest and the caller decides what to do
// with it, so a gateway failure can never unwind a committed order.
type CheckoutService struct {
	Repo *repo.GormRepo
}

type CheckoutResult struct {
	Order    *models.Order      `json:"order"`
	Manifest []payment.LineItem `json:"manifest"`
}

// Finalize runs the checkout transaction and builds the payment manifest from
// the just-created order items, not from the cart, which is empty by then.
func (s *CheckoutService) Finalize(ctx context.Context, userID uuid.UUID) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.finalize", "user_id", userID)

	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	order, err := s.Repo.CreateOrderFromCart(ctx, userID, cart.ID)
	if err != nil {
		if errors.Is(err, repo.ErrEmptyCart) {
			return nil, fmt.Errorf("nothing to check out: %w", ErrEmptyCart)
		}
		l.Error("checkout transaction aborted", "error", err)
		return nil, fmt.Errorf("%v: %w", err, ErrCheckoutFailed)
	}

	manifest := make([]payment.LineItem, 0, len(order.Items))
	for _, it := range order.Items {
		manifest = append(manifest, payment.LineItem{
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	l.Info("order created", "order_id", order.ID, "total", order.Total, "lines", len(order.Items))
	return &CheckoutResult{Order: order, Manifest: manifest}, nil
}

// TransitionStatus applies a payment outcome to a PENDING order. COMPLETED,
// CANCELLED and FAILED are terminal.
func (s *CheckoutService) TransitionStatus(ctx context.Context, userID, orderID uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	switch to {
	case models.OrderStatusCompleted, models.OrderStatusCancelled, models.OrderStatusFailed:
	default:
		return nil, fmt.Errorf("cannot transition to %q: %w", to, ErrValidation)
	}

	order, err := s.Repo.TransitionOrderStatus(ctx, userID, orderID, to)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		case errors.Is(err, repo.ErrInvalidTransition):
			return nil, fmt.Errorf("order %s is not pending: %w", orderID, ErrInvalidTransition)
		}
		return nil, err
	}
	return order, nil
}

func (s *CheckoutService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListOrders(ctx, userID, limit, offset)
}

func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, userID, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return order, err
}

func (s *CheckoutService) SalesSummary(ctx context.Context) (*repo.SalesSummary, error) {
	return s.Repo.GetSalesSummary(ctx)
}
