package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/abhirang/internal/models"
)

func product(name, price string) *models.Product {
	return &models.Product{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Name:      name,
		Price:     dec(price),
	}
}

func TestSnapshotOrderItems(t *testing.T) {
	shirt := product("Block Print Shirt", "1200.00")
	scarf := product("Silk Scarf", "450.00")

	items := []models.CartItem{
		{Product: shirt, ProductID: shirt.ID, Size: "M", Quantity: 2},
		{Product: scarf, ProductID: scarf.ID, Quantity: 1},
	}

	snapshot, subtotal := SnapshotOrderItems(items)
	require.Len(t, snapshot, 2)

	assert.Equal(t, "Block Print Shirt", snapshot[0].ProductName)
	assert.Equal(t, "M", snapshot[0].Size)
	assert.Equal(t, 2, snapshot[0].Quantity)
	assert.True(t, dec("1200.00").Equal(snapshot[0].Price))
	assert.True(t, dec("2400.00").Equal(snapshot[0].Total))
	require.NotNil(t, snapshot[0].ProductID)
	assert.Equal(t, shirt.ID, *snapshot[0].ProductID)

	assert.True(t, dec("450.00").Equal(snapshot[1].Total))
	assert.True(t, dec("2850.00").Equal(subtotal))
}

func TestSnapshotOrderItemsUsesDiscountPrice(t *testing.T) {
	sale := product("Sale Kurta", "2000.00")
	discounted := dec("1499.00")
	sale.DiscountPrice = &discounted

	snapshot, subtotal := SnapshotOrderItems([]models.CartItem{
		{Product: sale, ProductID: sale.ID, Quantity: 1},
	})

	require.Len(t, snapshot, 1)
	assert.True(t, dec("1499.00").Equal(snapshot[0].Price))
	assert.True(t, dec("1499.00").Equal(subtotal))
}

func TestSnapshotOrderItemsEmpty(t *testing.T) {
	snapshot, subtotal := SnapshotOrderItems(nil)
	assert.Empty(t, snapshot)
	assert.True(t, subtotal.IsZero())
}

func TestOrderTotal(t *testing.T) {
	tests := []struct {
		name                              string
		subtotal, discount, shipping, tax string
		want                              string
	}{
		{"no adjustments", "1000.00", "0", "0", "0", "1000.00"},
		{"with discount", "1000.00", "80.00", "0", "0", "920.00"},
		{"all components", "1000.00", "100.00", "50.00", "90.00", "1040.00"},
		{"discount equal to subtotal", "300.00", "300.00", "0", "0", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderTotal(dec(tt.subtotal), dec(tt.discount), dec(tt.shipping), dec(tt.tax))
			assert.True(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

// The running example: a 10 percent coupon capped at 80 against a 1000 cart
// yields an 80 discount and a 920 total.
func TestDiscountFlowsIntoTotal(t *testing.T) {
	coupon := models.Coupon{
		DiscountType:      models.DiscountTypePercentage,
		DiscountValue:     dec("10"),
		MaxDiscountAmount: ptr(dec("80")),
	}
	subtotal := dec("1000.00")

	discount := ComputeDiscount(&coupon, subtotal)
	total := OrderTotal(subtotal, discount, decimal.Zero, decimal.Zero)

	assert.True(t, dec("80.00").Equal(discount))
	assert.True(t, dec("920.00").Equal(total))
}
