package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/abhirang/internal/models"
)

// ErrCouponNotFound is returned when a coupon code does not exist.
var ErrCouponNotFound = errors.New("coupon not found")

// CouponRejectedError carries the user-facing reason a coupon was refused.
type CouponRejectedError struct {
	Reason string
}

func (e *CouponRejectedError) Error() string {
	return e.Reason
}

var percentBase = decimal.NewFromInt(100)

// ValidateCoupon checks the coupon's own state against the given time:
// active flag, validity window and the total usage limit. It is a pure
// function; eligibility checks that need the user or cart live on
// CouponService.
func ValidateCoupon(coupon *models.Coupon, now time.Time) (bool, string) {
	if !coupon.IsActive {
		return false, "coupon is not active"
	}
	if now.Before(coupon.ValidFrom) {
		return false, "coupon is not yet valid"
	}
	if now.After(coupon.ValidTo) {
		return false, "coupon has expired"
	}
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return false, "usage limit reached"
	}
	return true, ""
}

// ComputeDiscount returns the discount the coupon grants on the given
// subtotal. Percentage coupons are capped at MaxDiscountAmount when set;
// the result is always clamped to the subtotal so an order can never go
// net-negative.
func ComputeDiscount(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	if coupon.DiscountType == models.DiscountTypePercentage {
		discount = subtotal.Mul(coupon.DiscountValue).Div(percentBase)
		if coupon.MaxDiscountAmount != nil && discount.GreaterThan(*coupon.MaxDiscountAmount) {
			discount = *coupon.MaxDiscountAmount
		}
	} else {
		discount = coupon.DiscountValue
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount.Round(2)
}

// CouponService resolves coupon codes and checks per-user eligibility.
type CouponService struct {
	db *gorm.DB
}

// NewCouponService constructs a CouponService.
func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db}
}

// FindByCode looks up a coupon by its code.
func (s *CouponService) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

// CheckEligibility verifies the minimum-purchase threshold and the per-user
// usage limit for the given subtotal. It returns a user-facing reason when
// the coupon is not eligible.
func (s *CouponService) CheckEligibility(ctx context.Context, coupon *models.Coupon, userID uuid.UUID, subtotal decimal.Decimal) (bool, string, error) {
	return checkEligibility(s.db.WithContext(ctx), coupon, userID, subtotal)
}

// checkEligibility runs against the provided handle so the order placement
// transaction can reuse it inside its own scope.
func checkEligibility(tx *gorm.DB, coupon *models.Coupon, userID uuid.UUID, subtotal decimal.Decimal) (bool, string, error) {
	if subtotal.LessThan(coupon.MinPurchaseAmount) {
		return false, fmt.Sprintf("minimum purchase amount of %s required", coupon.MinPurchaseAmount.StringFixed(2)), nil
	}

	var used int64
	if err := tx.Model(&models.CouponUsage{}).
		Where("user_id = ? AND coupon_id = ?", userID, coupon.ID).
		Count(&used).Error; err != nil {
		return false, "", err
	}

	if coupon.PerUserLimit > 0 && used >= int64(coupon.PerUserLimit) {
		return false, "you have already used this coupon", nil
	}

	return true, "", nil
}
