package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierworks/storefront/internal/models"
)

func TestCartService_GetOrCreateCart_ReturnsExistingCart(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	// registration already provisioned this user's cart
	user := createTestUser(t, r, "existing@example.com")
	var seeded models.Cart
	require.NoError(t, r.DB.Where("user_id = ?", user.ID).First(&seeded).Error)

	got, err := svc.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)

	// and again: the lookup must keep resolving the same row
	again, err := svc.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, again.ID)
}

func TestCartService_AddItem_MergesQuantities(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "merge@example.com")
	product := createTestProduct(t, r, "Linen Shirt", "49.90")

	first, err := svc.AddItem(ctx, user.ID, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), first.Quantity)

	second, err := svc.AddItem(ctx, user.ID, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, uint(5), second.Quantity)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, r.DB.Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", first.CartID, product.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCartService_AddItem_Validation(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "validation@example.com")
	product := createTestProduct(t, r, "Wool Scarf", "25.00")

	tests := []struct {
		name      string
		productID uuid.UUID
		quantity  uint
		wantErr   error
	}{
		{name: "zero quantity", productID: product.ID, quantity: 0, wantErr: ErrValidation},
		{name: "nil product", productID: uuid.Nil, quantity: 1, wantErr: ErrValidation},
		{name: "unknown product", productID: uuid.New(), quantity: 1, wantErr: ErrProductNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.AddItem(ctx, user.ID, tt.productID, tt.quantity)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCartService_ConcurrentAdds_BothLand(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "race@example.com")
	product := createTestProduct(t, r, "Canvas Tote", "18.50")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, user.ID, product.ID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := svc.View(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, uint(workers), view.Items[0].Quantity)
}

func TestCartService_ConcurrentGetOrCreate_SingleCart(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	// user without a pre-made cart: exercises lazy creation under contention
	user := &models.User{ExternalID: uuid.NewString(), Email: "lazy@example.com", Role: "user"}
	require.NoError(t, r.DB.Create(user).Error)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetOrCreateCart(ctx, user.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCartService_UpdateItemQuantity(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "update@example.com")
	product := createTestProduct(t, r, "Denim Jacket", "120.00")

	item, err := svc.AddItem(ctx, user.ID, product.ID, 5)
	require.NoError(t, err)

	updated, err := svc.UpdateItemQuantity(ctx, user.ID, item.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), updated.Quantity)

	// a zero quantity is rejected and must not change the stored value
	_, err = svc.UpdateItemQuantity(ctx, user.ID, item.ID, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	view, err := svc.View(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, uint(2), view.Items[0].Quantity)

	_, err = svc.UpdateItemQuantity(ctx, user.ID, uuid.New(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_OwnershipIsolation(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	owner := createTestUser(t, r, "owner@example.com")
	intruder := createTestUser(t, r, "intruder@example.com")
	product := createTestProduct(t, r, "Silk Tie", "35.00")

	item, err := svc.AddItem(ctx, owner.ID, product.ID, 1)
	require.NoError(t, err)

	err = svc.RemoveItem(ctx, intruder.ID, item.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateItemQuantity(ctx, intruder.ID, item.ID, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	view, err := svc.View(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, uint(1), view.Items[0].Quantity)
}

func TestCartService_RemoveItem(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "remove@example.com")
	product := createTestProduct(t, r, "Leather Belt", "42.00")

	item, err := svc.AddItem(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, user.ID, item.ID))

	err = svc.RemoveItem(ctx, user.ID, item.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_ClearCart_Idempotent(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "clear@example.com")
	product := createTestProduct(t, r, "Beanie", "15.00")

	_, err := svc.AddItem(ctx, user.ID, product.ID, 4)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, user.ID))
	require.NoError(t, svc.ClearCart(ctx, user.ID))

	view, err := svc.View(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, uint(0), view.ItemCount)
}

func TestCartService_View_LivePricesAndUnpricedLines(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "view@example.com")
	shirt := createTestProduct(t, r, "Oxford Shirt", "60.00")
	boots := createTestProduct(t, r, "Chelsea Boots", "150.00")

	_, err := svc.AddItem(ctx, user.ID, shirt.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user.ID, boots.ID, 1)
	require.NoError(t, err)

	view, err := svc.View(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(3), view.ItemCount)
	requireDecimalEqual(t, "270.00", view.TotalAmount)

	// the view reflects the live catalog price, not the add-time price
	shirt.Price = decimal.RequireFromString("80.00")
	require.NoError(t, r.SaveProduct(ctx, shirt))

	view, err = svc.View(ctx, user.ID)
	require.NoError(t, err)
	requireDecimalEqual(t, "310.00", view.TotalAmount)

	// a product gone from the catalog annotates its line instead of failing
	require.NoError(t, r.DeleteProduct(ctx, boots.ID))
	view, err = svc.View(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	var unpriced int
	for _, it := range view.Items {
		if it.Unpriced {
			unpriced++
		}
	}
	assert.Equal(t, 1, unpriced)
	requireDecimalEqual(t, "160.00", view.TotalAmount)
}
