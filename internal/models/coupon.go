package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon discount kinds.
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Coupon is a discount code. Apart from usage_count, which is incremented
// by order placement, a coupon is immutable once created.
type Coupon struct {
	BaseModel
	Code              string           `gorm:"uniqueIndex" json:"code"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `gorm:"type:numeric(10,2)" json:"discount_value"`
	MinPurchaseAmount decimal.Decimal  `gorm:"type:numeric(10,2);default:0" json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `gorm:"type:numeric(10,2)" json:"max_discount_amount,omitempty"`
	UsageLimit        int              `json:"usage_limit"`
	UsageCount        int              `json:"usage_count"`
	PerUserLimit      int              `gorm:"default:1" json:"per_user_limit"`
	IsActive          bool             `gorm:"default:true" json:"is_active"`
	ValidFrom         time.Time        `json:"valid_from"`
	ValidTo           time.Time        `json:"valid_to"`
}

// CouponUsage records one successful redemption per (user, coupon, order).
// The unique index makes duplicate redemption accounting impossible.
type CouponUsage struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_coupon_order" json:"user_id"`
	CouponID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_coupon_order;index" json:"coupon_id"`
	OrderID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_coupon_order" json:"order_id"`
	UsedAt   time.Time `json:"used_at"`
}
