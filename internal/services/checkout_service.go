package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/abhirang/internal/models"
	"github.com/example/abhirang/internal/utils"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrAddressNotFound = errors.New("address not found")
)

// maxOrderNumberAttempts bounds retries on an order-number collision.
const maxOrderNumberAttempts = 3

// CheckoutQuote is the priced view of a cart at checkout time. All amounts
// are recomputed from live cart items and the currently applied coupon.
type CheckoutQuote struct {
	Items          []models.CartItem `json:"items"`
	CouponCode     string            `json:"coupon_code,omitempty"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	ShippingCost   decimal.Decimal   `json:"shipping_cost"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	Total          decimal.Decimal   `json:"total"`
}

// PlaceOrderInput carries the checkout-session state into order placement.
// The applied coupon travels on the cart row, not in ambient session state.
type PlaceOrderInput struct {
	UserID    uuid.UUID
	AddressID uuid.UUID
	Notes     string
}

// CheckoutService converts a cart into an order inside a single database
// transaction.
type CheckoutService struct {
	db      *gorm.DB
	coupons *CouponService
	logger  *zap.Logger
	now     func() time.Time
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(db *gorm.DB, coupons *CouponService, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{db: db, coupons: coupons, logger: logger, now: time.Now}
}

// SnapshotOrderItems copies cart lines into immutable order items at current
// product prices and returns them with the cart subtotal. Each item total is
// price times quantity; the sum of totals is the subtotal.
func SnapshotOrderItems(items []models.CartItem) ([]models.OrderItem, decimal.Decimal) {
	snapshot := make([]models.OrderItem, 0, len(items))
	subtotal := decimal.Zero

	for i := range items {
		item := &items[i]
		price := item.Price()
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))

		orderItem := models.OrderItem{
			ProductName: "",
			Size:        item.Size,
			Quantity:    item.Quantity,
			Price:       price,
			Total:       lineTotal,
		}
		if item.Product != nil {
			productID := item.Product.ID
			orderItem.ProductID = &productID
			orderItem.ProductName = item.Product.Name
		}

		snapshot = append(snapshot, orderItem)
		subtotal = subtotal.Add(lineTotal)
	}

	return snapshot, subtotal
}

// OrderTotal computes total = subtotal - discount + shipping + tax. The
// result is frozen onto the order at creation and never recomputed.
func OrderTotal(subtotal, discount, shipping, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(shipping).Add(tax)
}

// Quote prices the user's cart, silently dropping an applied coupon that has
// become invalid since application.
func (s *CheckoutService) Quote(ctx context.Context, userID uuid.UUID) (*CheckoutQuote, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	_, subtotal := SnapshotOrderItems(cart.Items)

	discount := decimal.Zero
	couponCode := ""
	if cart.CouponCode != "" {
		coupon, err := s.coupons.FindByCode(ctx, cart.CouponCode)
		switch {
		case err == nil:
			ok, _ := ValidateCoupon(coupon, s.now())
			if ok {
				eligible, _, err := s.coupons.CheckEligibility(ctx, coupon, userID, subtotal)
				if err != nil {
					return nil, err
				}
				if eligible {
					discount = ComputeDiscount(coupon, subtotal)
					couponCode = coupon.Code
				}
			}
		case errors.Is(err, ErrCouponNotFound):
			// Coupon deleted since application; drop it.
		default:
			return nil, err
		}

		if couponCode == "" {
			if err := s.db.WithContext(ctx).Model(&models.Cart{}).
				Where("id = ?", cart.ID).
				Update("coupon_code", "").Error; err != nil {
				return nil, err
			}
		}
	}

	shipping := decimal.Zero
	tax := decimal.Zero

	return &CheckoutQuote{
		Items:          cart.Items,
		CouponCode:     couponCode,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		ShippingCost:   shipping,
		TaxAmount:      tax,
		Total:          OrderTotal(subtotal, discount, shipping, tax),
	}, nil
}

// ApplyCoupon validates the code against the live cart subtotal and stores
// it on the cart when accepted. A CouponRejectedError carries the reason
// shown to the user.
func (s *CheckoutService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*CheckoutQuote, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, &CouponRejectedError{Reason: "invalid coupon code"}
		}
		return nil, err
	}

	if ok, reason := ValidateCoupon(coupon, s.now()); !ok {
		return nil, &CouponRejectedError{Reason: reason}
	}

	_, subtotal := SnapshotOrderItems(cart.Items)

	eligible, reason, err := s.coupons.CheckEligibility(ctx, coupon, userID, subtotal)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, &CouponRejectedError{Reason: reason}
	}

	if err := s.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Update("coupon_code", coupon.Code).Error; err != nil {
		return nil, err
	}

	discount := ComputeDiscount(coupon, subtotal)
	return &CheckoutQuote{
		Items:          cart.Items,
		CouponCode:     coupon.Code,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		ShippingCost:   decimal.Zero,
		TaxAmount:      decimal.Zero,
		Total:          OrderTotal(subtotal, discount, decimal.Zero, decimal.Zero),
	}, nil
}

// RemoveCoupon clears any applied coupon from the user's cart.
func (s *CheckoutService) RemoveCoupon(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Cart{}).
		Where("user_id = ?", userID).
		Update("coupon_code", "").Error
}

// PlaceOrder atomically converts the user's cart into an order: it re-reads
// the cart, re-validates the applied coupon, snapshots items and address,
// records coupon usage under a row lock, and clears the cart. Any failure
// rolls back every step.
func (s *CheckoutService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	var order *models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the cart row first. Two concurrent placements for one cart
		// serialize here; the loser re-reads after the winner's delete and
		// finds the cart empty.
		var cart models.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items.Product").
			Where("user_id = ?", in.UserID).
			First(&cart).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		var address models.Address
		err = tx.First(&address, "id = ? AND user_id = ?", in.AddressID, in.UserID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAddressNotFound
			}
			return err
		}

		items, subtotal := SnapshotOrderItems(cart.Items)

		now := s.now()
		discount := decimal.Zero
		var appliedCoupon *models.Coupon

		if cart.CouponCode != "" {
			var coupon models.Coupon
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("code = ?", cart.CouponCode).
				First(&coupon).Error
			switch {
			case err == nil:
				// Re-validate under the lock; a coupon that went stale
				// between application and placement is dropped without
				// surfacing an error.
				if ok, _ := ValidateCoupon(&coupon, now); ok {
					eligible, _, err := checkEligibility(tx, &coupon, in.UserID, subtotal)
					if err != nil {
						return err
					}
					if eligible {
						discount = ComputeDiscount(&coupon, subtotal)
						appliedCoupon = &coupon
					}
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				// Coupon deleted since application; drop it.
			default:
				return err
			}
		}

		shipping := decimal.Zero
		tax := decimal.Zero

		order = &models.Order{
			UserID:               in.UserID,
			AddressID:            &address.ID,
			ShippingFullName:     address.FullName,
			ShippingPhone:        address.Phone,
			ShippingAddressLine1: address.AddressLine1,
			ShippingAddressLine2: address.AddressLine2,
			ShippingCity:         address.City,
			ShippingState:        address.State,
			ShippingPostalCode:   address.PostalCode,
			ShippingCountry:      address.Country,
			Subtotal:             subtotal,
			DiscountAmount:       discount,
			ShippingCost:         shipping,
			TaxAmount:            tax,
			TotalAmount:          OrderTotal(subtotal, discount, shipping, tax),
			Status:               models.OrderStatusPending,
			PaymentStatus:        models.OrderPaymentPending,
			Notes:                in.Notes,
		}
		if appliedCoupon != nil {
			couponID := appliedCoupon.ID
			order.CouponID = &couponID
			order.CouponCode = appliedCoupon.Code
		}

		if err := createOrderWithNumber(tx, order, now); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Items = items

		if appliedCoupon != nil {
			usage := models.CouponUsage{
				UserID:   in.UserID,
				CouponID: appliedCoupon.ID,
				OrderID:  order.ID,
				UsedAt:   now,
			}
			if err := tx.Create(&usage).Error; err != nil {
				return err
			}

			// Guarded increment: never push usage_count past usage_limit,
			// even if the row lock above were ever bypassed.
			res := tx.Model(&models.Coupon{}).
				Where("id = ? AND (usage_limit = 0 OR usage_count < usage_limit)", appliedCoupon.ID).
				UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errors.New("coupon usage limit exceeded")
			}
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Cart{}).
			Where("id = ?", cart.ID).
			Update("coupon_code", "").Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", in.UserID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	return order, nil
}

// createOrderWithNumber assigns a fresh order number and inserts the order.
// Collisions are re-checked with a SELECT before the insert: a failed insert
// would abort the surrounding transaction, so the unique index is the last
// line of defence rather than the retry trigger.
func createOrderWithNumber(tx *gorm.DB, order *models.Order, now time.Time) error {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number, err := utils.GenerateOrderNumber(now)
		if err != nil {
			return err
		}

		var taken int64
		if err := tx.Model(&models.Order{}).
			Where("order_number = ?", number).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			continue
		}

		order.OrderNumber = number
		return tx.Create(order).Error
	}
	return errors.New("could not generate a unique order number")
}
