package orders

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testAddress() types.ShippingAddress {
	return types.ShippingAddress{
		Line1:      "1 Market St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
}

func seedOrder(t *testing.T, repo Repository, session, email string, createdAt time.Time) *models.Order {
	t.Helper()
	ctx := context.Background()
	order, err := repo.CreateOrder(ctx, &models.Order{
		CartSessionID:   session,
		Email:           email,
		FullName:        "Pat Doe",
		ShippingAddress: testAddress(),
		Status:          enums.OrderStatusPlaced,
		Subtotal:        decimal.RequireFromString("50"),
		Tax:             decimal.RequireFromString("4"),
		Shipping:        decimal.RequireFromString("10"),
		DiscountAmount:  decimal.Zero,
		Total:           decimal.RequireFromString("64"),
		CreatedAt:       createdAt,
	})
	require.NoError(t, err)

	require.NoError(t, repo.CreateOrderLineItems(ctx, []models.OrderLineItem{
		{OrderID: order.ID, LineID: "b", Name: "Second", UnitPrice: decimal.RequireFromString("20"), Qty: 1, LineTotal: decimal.RequireFromString("20"), Position: 1},
		{OrderID: order.ID, LineID: "a", Name: "First", UnitPrice: decimal.RequireFromString("15"), Qty: 2, LineTotal: decimal.RequireFromString("30"), Position: 0},
	}))
	return order
}

func TestRepositoryCreateAndFindOrder(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()

	created := seedOrder(t, repo, "sess-1", "pat@example.com", time.Now().UTC())
	require.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "62701", found.ShippingAddress.PostalCode)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("64")))
	require.Len(t, found.Lines, 2)
	assert.Equal(t, "First", found.Lines[0].Name)
	assert.Equal(t, "Second", found.Lines[1].Name)

	_, err = repo.FindOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateOrderStatusGuardsCurrentStatus(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	order := seedOrder(t, repo, "sess-1", "pat@example.com", time.Now().UTC())

	ok, err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPlaced, enums.OrderStatusFulfilled)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPlaced, enums.OrderStatusCanceled)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryListOrders(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	base := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	first := seedOrder(t, repo, "sess-a", "a@example.com", base)
	second := seedOrder(t, repo, "sess-b", "B@example.com", base.Add(time.Minute))
	third := seedOrder(t, repo, "sess-c", "c@example.com", base.Add(2*time.Minute))

	page, next, err := repo.ListOrders(ctx, pagination.Params{Limit: 2}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, third.ID, page[0].ID)
	assert.Equal(t, second.ID, page[1].ID)
	require.NotEmpty(t, next)

	page, next, err = repo.ListOrders(ctx, pagination.Params{Limit: 2, Cursor: next}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)
	assert.Empty(t, next)

	page, _, err = repo.ListOrders(ctx, pagination.Params{}, OrderFilters{Email: " b@EXAMPLE.com "})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)

	_, err = repo.UpdateOrderStatus(ctx, first.ID, enums.OrderStatusPlaced, enums.OrderStatusCanceled)
	require.NoError(t, err)
	canceled := enums.OrderStatusCanceled
	page, _, err = repo.ListOrders(ctx, pagination.Params{}, OrderFilters{Status: &canceled})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)
}
