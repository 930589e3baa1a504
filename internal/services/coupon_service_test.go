package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/example/abhirang/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func activeCoupon() models.Coupon {
	return models.Coupon{
		Code:              "SAVE10",
		DiscountType:      models.DiscountTypePercentage,
		DiscountValue:     dec("10"),
		MinPurchaseAmount: decimal.Zero,
		IsActive:          true,
		ValidFrom:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:           time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
	}
}

func TestValidateCoupon(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		mutate     func(*models.Coupon)
		wantOK     bool
		wantReason string
	}{
		{
			name:   "valid coupon",
			mutate: func(c *models.Coupon) {},
			wantOK: true,
		},
		{
			name:       "inactive",
			mutate:     func(c *models.Coupon) { c.IsActive = false },
			wantOK:     false,
			wantReason: "coupon is not active",
		},
		{
			name: "not yet valid",
			mutate: func(c *models.Coupon) {
				c.ValidFrom = now.Add(24 * time.Hour)
			},
			wantOK:     false,
			wantReason: "coupon is not yet valid",
		},
		{
			name: "expired",
			mutate: func(c *models.Coupon) {
				c.ValidTo = now.Add(-24 * time.Hour)
			},
			wantOK:     false,
			wantReason: "coupon has expired",
		},
		{
			name: "usage limit reached",
			mutate: func(c *models.Coupon) {
				c.UsageLimit = 1
				c.UsageCount = 1
			},
			wantOK:     false,
			wantReason: "usage limit reached",
		},
		{
			name: "unlimited usage ignores count",
			mutate: func(c *models.Coupon) {
				c.UsageLimit = 0
				c.UsageCount = 9999
			},
			wantOK: true,
		},
		{
			name: "boundary of validity window is inclusive",
			mutate: func(c *models.Coupon) {
				c.ValidFrom = now
				c.ValidTo = now
			},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupon := activeCoupon()
			tt.mutate(&coupon)

			ok, reason := ValidateCoupon(&coupon, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   models.Coupon
		subtotal string
		want     string
	}{
		{
			name: "percentage",
			coupon: models.Coupon{
				DiscountType:  models.DiscountTypePercentage,
				DiscountValue: dec("10"),
			},
			subtotal: "1000.00",
			want:     "100.00",
		},
		{
			name: "percentage capped at max discount",
			coupon: models.Coupon{
				DiscountType:      models.DiscountTypePercentage,
				DiscountValue:     dec("10"),
				MaxDiscountAmount: ptr(dec("80")),
			},
			subtotal: "1000.00",
			want:     "80.00",
		},
		{
			name: "percentage under cap is not touched",
			coupon: models.Coupon{
				DiscountType:      models.DiscountTypePercentage,
				DiscountValue:     dec("10"),
				MaxDiscountAmount: ptr(dec("80")),
			},
			subtotal: "500.00",
			want:     "50.00",
		},
		{
			name: "fixed amount",
			coupon: models.Coupon{
				DiscountType:  models.DiscountTypeFixed,
				DiscountValue: dec("150"),
			},
			subtotal: "1000.00",
			want:     "150.00",
		},
		{
			name: "fixed amount clamped to subtotal",
			coupon: models.Coupon{
				DiscountType:  models.DiscountTypeFixed,
				DiscountValue: dec("500"),
			},
			subtotal: "300.00",
			want:     "300.00",
		},
		{
			name: "percentage rounds to two places",
			coupon: models.Coupon{
				DiscountType:  models.DiscountTypePercentage,
				DiscountValue: dec("15"),
			},
			subtotal: "99.99",
			want:     "15.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(&tt.coupon, dec(tt.subtotal))
			assert.True(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
