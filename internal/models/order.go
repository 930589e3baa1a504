package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order fulfillment statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Order payment statuses.
const (
	OrderPaymentPending  = "pending"
	OrderPaymentPaid     = "paid"
	OrderPaymentFailed   = "failed"
	OrderPaymentRefunded = "refunded"
)

// Order is the immutable record of a completed checkout. Monetary fields and
// the shipping address are snapshots taken at placement time; they are never
// recomputed, so later edits to products, coupons or addresses cannot alter
// a historical order.
type Order struct {
	BaseModel
	OrderNumber string    `gorm:"uniqueIndex" json:"order_number"`
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User        *User     `json:"user,omitempty"`

	// Shipping address snapshot, decoupled from the live address row.
	AddressID            *uuid.UUID `gorm:"type:uuid" json:"address_id"`
	ShippingFullName     string     `json:"shipping_full_name"`
	ShippingPhone        string     `json:"shipping_phone"`
	ShippingAddressLine1 string     `json:"shipping_address_line1"`
	ShippingAddressLine2 string     `json:"shipping_address_line2"`
	ShippingCity         string     `json:"shipping_city"`
	ShippingState        string     `json:"shipping_state"`
	ShippingPostalCode   string     `json:"shipping_postal_code"`
	ShippingCountry      string     `json:"shipping_country"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2)" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"discount_amount"`
	ShippingCost   decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"shipping_cost"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(10,2)" json:"total_amount"`

	// CouponCode duplicates the code as text so deleting a coupon cannot
	// break a historical order.
	CouponID   *uuid.UUID `gorm:"type:uuid" json:"coupon_id"`
	CouponCode string     `json:"coupon_code"`

	Status        string `gorm:"default:pending" json:"status"`
	PaymentStatus string `gorm:"default:pending" json:"payment_status"`

	Notes          string `json:"notes"`
	TrackingNumber string `json:"tracking_number"`

	PaidAt      *time.Time `json:"paid_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`

	Items   []OrderItem `json:"items,omitempty"`
	Payment *Payment    `json:"payment,omitempty"`
}

// OrderItem is an immutable line-item snapshot. The product reference may go
// null if the product is later deleted; name, price and totals remain.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2)" json:"price"`
	Total       decimal.Decimal `gorm:"type:numeric(10,2)" json:"total"`
}
