package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the per-user shopping cart, created lazily on first add.
// CouponCode holds the coupon applied during checkout; it is re-validated
// at placement time and cleared when the order is placed.
type Cart struct {
	BaseModel
	UserID     uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	CouponCode string     `json:"coupon_code"`
	Items      []CartItem `json:"items,omitempty"`
}

// Subtotal sums the live line subtotals. Prices are never stored on the
// cart; they are read from the referenced products at computation time.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

// TotalItems returns the total quantity across all items.
func (c *Cart) TotalItems() int {
	count := 0
	for i := range c.Items {
		count += c.Items[i].Quantity
	}
	return count
}

// CartItem is a single line in a cart, unique per (cart, product, size).
type CartItem struct {
	BaseModel
	CartID    uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_cart_product_size" json:"cart_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_product_size" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	Size      string    `gorm:"uniqueIndex:idx_cart_product_size" json:"size"`
	Quantity  int       `json:"quantity"`
}

// Price returns the current effective product price for this line.
func (ci *CartItem) Price() decimal.Decimal {
	if ci.Product == nil {
		return decimal.Zero
	}
	return ci.Product.FinalPrice()
}

// Subtotal returns price times quantity at current product prices.
func (ci *CartItem) Subtotal() decimal.Decimal {
	return ci.Price().Mul(decimal.NewFromInt(int64(ci.Quantity)))
}
