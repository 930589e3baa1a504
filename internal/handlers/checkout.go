package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/abhirang/internal/middleware"
	"github.com/example/abhirang/internal/services"
)

// CheckoutHandler exposes the checkout quote, coupon application and order
// placement endpoints.
type CheckoutHandler struct {
	checkout *services.CheckoutService
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// GetQuote prices the cart for the checkout page.
func (h *CheckoutHandler) GetQuote(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	quote, err := h.checkout.Quote(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			return fiber.NewError(fiber.StatusBadRequest, "your cart is empty")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": quote})
}

type applyCouponRequest struct {
	CouponCode string `json:"coupon_code"`
}

// ApplyCoupon validates a coupon against the live cart and stores it.
func (h *CheckoutHandler) ApplyCoupon(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req applyCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "please enter a coupon code")
	}

	quote, err := h.checkout.ApplyCoupon(c.Context(), userID, code)
	if err != nil {
		var rejected *services.CouponRejectedError
		switch {
		case errors.As(err, &rejected):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": rejected.Reason,
			})
		case errors.Is(err, services.ErrEmptyCart):
			return fiber.NewError(fiber.StatusBadRequest, "your cart is empty")
		default:
			return err
		}
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"message":         "coupon applied",
		"coupon_code":     quote.CouponCode,
		"discount_amount": quote.DiscountAmount,
		"total":           quote.Total,
	})
}

// RemoveCoupon clears the applied coupon.
func (h *CheckoutHandler) RemoveCoupon(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.checkout.RemoveCoupon(c.Context(), userID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "coupon removed"})
}

type placeOrderRequest struct {
	AddressID string `json:"address_id"`
	Notes     string `json:"notes"`
}

// PlaceOrder runs the atomic checkout transaction.
func (h *CheckoutHandler) PlaceOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.AddressID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "please select a delivery address")
	}
	addressID, err := uuid.Parse(req.AddressID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid address id")
	}

	order, err := h.checkout.PlaceOrder(c.Context(), services.PlaceOrderInput{
		UserID:    userID,
		AddressID: addressID,
		Notes:     req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return fiber.NewError(fiber.StatusBadRequest, "your cart is empty")
		case errors.Is(err, services.ErrAddressNotFound):
			return fiber.NewError(fiber.StatusBadRequest, "please select a delivery address")
		default:
			// Transactional failures roll back completely; the client gets
			// a generic message without internal detail.
			return fiber.NewError(fiber.StatusInternalServerError, "could not place order, please try again")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order_number":    order.OrderNumber,
			"status":          order.Status,
			"payment_status":  order.PaymentStatus,
			"subtotal":        order.Subtotal,
			"discount_amount": order.DiscountAmount,
			"shipping_cost":   order.ShippingCost,
			"tax_amount":      order.TaxAmount,
			"total_amount":    order.TotalAmount,
			"coupon_code":     order.CouponCode,
		},
	})
}
